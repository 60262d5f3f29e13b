package cues

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPage marks an upstream body that decoded as JSON but carries no records list.
	ErrInvalidPage = errors.New("invalid upstream page")

	// ErrInvalidRecord marks a single record without a usable id or fields object.
	ErrInvalidRecord = errors.New("invalid upstream record")
)

// Page is one page of the upstream list endpoint.
type Page struct {
	Records []json.RawMessage
	Offset  string
}

// Record is an upstream record that passed shape validation.
type Record struct {
	ID          string
	Fields      Fields
	CreatedTime string
}

// Fields holds the cue columns of an upstream record. Each column type
// decodes leniently: a value of an unexpected JSON type becomes "".
type Fields struct {
	Title    Text  `json:"title"`
	Composer Text  `json:"composer"`
	Genre    Genre `json:"genre"`
	AudioURL Media `json:"audio_url"`
}

// DecodePage validates the top-level shape of an upstream list response.
// Malformed JSON is returned as a plain decode error; well-formed JSON without
// a records array wraps ErrInvalidPage.
func DecodePage(data []byte) (Page, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return Page{}, fmt.Errorf("decode upstream body: %w", err)
		}
		return Page{}, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}

	rawRecords, ok := top["records"]
	if !ok || isNull(rawRecords) {
		return Page{}, fmt.Errorf("%w: missing records list", ErrInvalidPage)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(rawRecords, &records); err != nil {
		return Page{}, fmt.Errorf("%w: records is not a list", ErrInvalidPage)
	}

	page := Page{Records: records}
	if rawOffset, ok := top["offset"]; ok {
		// A non-string offset ends pagination rather than failing the page
		_ = json.Unmarshal(rawOffset, &page.Offset)
	}
	return page, nil
}

// DecodeRecord validates a single upstream record. Records without a
// non-empty id or without a fields object wrap ErrInvalidRecord.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	var r struct {
		ID          json.RawMessage `json:"id"`
		Fields      json.RawMessage `json:"fields"`
		CreatedTime string          `json:"createdTime"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	id, err := decodeID(r.ID)
	if err != nil {
		return Record{}, err
	}

	if !isObject(r.Fields) {
		return Record{}, fmt.Errorf("%w: record %s has no fields object", ErrInvalidRecord, id)
	}

	var fields Fields
	if err := json.Unmarshal(r.Fields, &fields); err != nil {
		return Record{}, fmt.Errorf("%w: record %s: %v", ErrInvalidRecord, id, err)
	}

	return Record{ID: id, Fields: fields, CreatedTime: r.CreatedTime}, nil
}

// DecodeRecords maps every valid record on the page to a Cue and reports how
// many records were dropped.
func DecodeRecords(records []json.RawMessage, opts Options) (out []Cue, dropped int, errs []error) {
	out = make([]Cue, 0, len(records))
	for _, raw := range records {
		rec, err := DecodeRecord(raw)
		if err != nil {
			dropped++
			errs = append(errs, err)
			continue
		}
		out = append(out, FromRecord(rec, opts))
	}
	return out, dropped, errs
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || isNull(raw) {
		return "", fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty id", ErrInvalidRecord)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if n.String() == "0" {
			return "", fmt.Errorf("%w: zero id", ErrInvalidRecord)
		}
		return n.String(), nil
	}

	return "", fmt.Errorf("%w: id is neither string nor number", ErrInvalidRecord)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Text is a string column. Non-string values decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// Genre is a single-select or multi-select column. A list is joined with
// GenreSeparator; non-string list entries are skipped.
type Genre string

func (g *Genre) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*g = Genre(s)
		return nil
	}

	var list []any
	if err := json.Unmarshal(b, &list); err != nil {
		*g = ""
		return nil
	}

	values := make([]string, 0, len(list))
	for _, item := range list {
		if v, ok := item.(string); ok {
			values = append(values, v)
		}
	}
	*g = Genre(strings.Join(values, GenreSeparator))
	return nil
}

// Media is an audio column: either a URL string or an attachment list, in
// which case the first attachment's url is used.
type Media string

func (m *Media) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Media(s)
		return nil
	}

	var attachments []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(b, &attachments); err != nil || len(attachments) == 0 {
		*m = ""
		return nil
	}
	*m = Media(attachments[0].URL)
	return nil
}
