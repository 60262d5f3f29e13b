package cues

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantRecords int
		wantOffset  string
		wantInvalid bool
		wantErr     bool
	}{
		{name: "records and offset", body: `{"records":[{"id":"a"},{"id":"b"}],"offset":"itr1"}`, wantRecords: 2, wantOffset: "itr1"},
		{name: "empty records", body: `{"records":[]}`, wantRecords: 0},
		{name: "missing records", body: `{"error":"nope"}`, wantErr: true, wantInvalid: true},
		{name: "null records", body: `{"records":null}`, wantErr: true, wantInvalid: true},
		{name: "records not a list", body: `{"records":{"id":"a"}}`, wantErr: true, wantInvalid: true},
		{name: "top level array", body: `[{"id":"a"}]`, wantErr: true, wantInvalid: true},
		{name: "non-string offset ignored", body: `{"records":[],"offset":7}`, wantRecords: 0},
		{name: "malformed json", body: `{"records":[`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodePage([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for body %q", tt.body)
				}
				if got := errors.Is(err, ErrInvalidPage); got != tt.wantInvalid {
					t.Errorf("errors.Is(err, ErrInvalidPage) = %v, want %v (err: %v)", got, tt.wantInvalid, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(page.Records) != tt.wantRecords {
				t.Errorf("Expected %d records, got %d", tt.wantRecords, len(page.Records))
			}
			if page.Offset != tt.wantOffset {
				t.Errorf("Expected offset %q, got %q", tt.wantOffset, page.Offset)
			}
		})
	}
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    Record
	}{
		{
			name: "full record",
			raw:  `{"id":"rec1","createdTime":"2024-01-01T00:00:00.000Z","fields":{"title":"Main Theme","composer":"A. Composer","genre":["Jazz","Noir"],"audio_url":"/public/tracks/theme/"}}`,
			want: Record{
				ID:          "rec1",
				CreatedTime: "2024-01-01T00:00:00.000Z",
				Fields:      Fields{Title: "Main Theme", Composer: "A. Composer", Genre: "Jazz, Noir", AudioURL: "/public/tracks/theme/"},
			},
		},
		{name: "empty fields object", raw: `{"id":"rec2","fields":{}}`, want: Record{ID: "rec2"}},
		{name: "numeric id", raw: `{"id":42,"fields":{}}`, want: Record{ID: "42"}},
		{
			name: "wrong field types default to empty",
			raw:  `{"id":"rec3","fields":{"title":12,"composer":null,"genre":{"x":1},"audio_url":false}}`,
			want: Record{ID: "rec3"},
		},
		{
			name: "attachment audio",
			raw:  `{"id":"rec4","fields":{"audio_url":[{"url":"https://cdn.example.com/a.mp3"},{"url":"https://cdn.example.com/b.mp3"}]}}`,
			want: Record{ID: "rec4", Fields: Fields{AudioURL: "https://cdn.example.com/a.mp3"}},
		},
		{name: "missing id", raw: `{"fields":{"title":"x"}}`, wantErr: true},
		{name: "empty id", raw: `{"id":"","fields":{"title":"x"}}`, wantErr: true},
		{name: "null id", raw: `{"id":null,"fields":{}}`, wantErr: true},
		{name: "boolean id", raw: `{"id":true,"fields":{}}`, wantErr: true},
		{name: "missing fields", raw: `{"id":"rec5"}`, wantErr: true},
		{name: "null fields", raw: `{"id":"rec6","fields":null}`, wantErr: true},
		{name: "fields not an object", raw: `{"id":"rec7","fields":"title"}`, wantErr: true},
		{name: "record not an object", raw: `"rec8"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecord(json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRecord) {
					t.Fatalf("Expected ErrInvalidRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDecodeRecordsDropsInvalid(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"id":"rec1","fields":{"title":"Main Theme","genre":"Jazz"}}`),
		json.RawMessage(`{"fields":{"title":"No ID"}}`),
		json.RawMessage(`{"id":"rec2"}`),
		json.RawMessage(`{"id":"rec3","fields":{"title":"End Credits","genre":["Noir"],"audio_url":"/tracks/end.wav"}}`),
	}

	got, dropped, errs := DecodeRecords(records, DefaultOptions())
	if dropped != 2 {
		t.Errorf("Expected 2 dropped records, got %d", dropped)
	}
	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errs))
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 cues, got %d", len(got))
	}
	if got[0].ID != "rec1" || got[1].ID != "rec3" {
		t.Errorf("Unexpected cue order: %q, %q", got[0].ID, got[1].ID)
	}
	if got[1].Genre != "Noir" || got[1].AudioURL != "/tracks/end.wav" {
		t.Errorf("Unexpected mapping for rec3: %+v", got[1])
	}
	// Every field is a string, never missing
	if got[0].Composer != "" || got[0].AudioURL != "" {
		t.Errorf("Expected empty defaults for rec1, got %+v", got[0])
	}
}

func TestCueJSONAlwaysHasAllFields(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{"id":"rec1","fields":{}}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	data, err := json.Marshal(FromRecord(rec, DefaultOptions()))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"id", FieldTitle, FieldComposer, FieldGenre, FieldAudioURL} {
		v, ok := m[key]
		if !ok {
			t.Errorf("Missing key %q in %s", key, data)
			continue
		}
		if _, isString := v.(string); !isString {
			t.Errorf("Key %q is %T, want string", key, v)
		}
	}
}
