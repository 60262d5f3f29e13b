package cues

// Cue is a single playable catalog entry in the shape served to clients.
// Every field is always present; missing upstream values become "".
type Cue struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Composer string `json:"composer"`
	Genre    string `json:"genre"`
	AudioURL string `json:"audio_url"`
}

// Upstream field names in the cue table
const (
	FieldTitle    = "title"
	FieldComposer = "composer"
	FieldGenre    = "genre"
	FieldAudioURL = "audio_url"
)

const (
	// DefaultAudioExt is appended to audio paths that carry no extension.
	DefaultAudioExt = ".mp3"

	// GenreSeparator joins multi-select genre values into one string.
	GenreSeparator = ", "
)

// Empty-state messages for a filtered view
const (
	MsgNoCues    = "No cues available."
	MsgNoMatches = "No cues match your search."
)

// Options controls how upstream records are reshaped into cues.
type Options struct {
	DefaultAudioExt string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{DefaultAudioExt: DefaultAudioExt}
}

// FromRecord maps a validated upstream record to a Cue.
func FromRecord(rec Record, opts Options) Cue {
	ext := opts.DefaultAudioExt
	if ext == "" {
		ext = DefaultAudioExt
	}
	return Cue{
		ID:       rec.ID,
		Title:    string(rec.Fields.Title),
		Composer: string(rec.Fields.Composer),
		Genre:    string(rec.Fields.Genre),
		AudioURL: NormalizeAudioURL(string(rec.Fields.AudioURL), ext),
	}
}
