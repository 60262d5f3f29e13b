package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zenibako/cue-browser/cues"
)

func TestEscapeTable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"music data", "music%20data"},
		{"music%20data", "music%20data"},
		{"Cues", "Cues"},
		{"100% cues", "100%25%20cues"},
		{"a/b", "a%2Fb"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := EscapeTable(tt.in); got != tt.want {
				t.Errorf("EscapeTable(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestListRecordsSendsHeaders(t *testing.T) {
	var gotPath, gotAuth, gotCache, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotCache = r.Header.Get("Cache-Control")
		gotType = r.Header.Get("Content-Type")
		fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"title":"Opening"}}]}`)
	}))
	defer srv.Close()

	c := NewClient("appBase", "secret", "music data", WithAPIURL(srv.URL+"/v0/"))
	records, err := c.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if gotPath != "/v0/appBase/music%20data" {
		t.Errorf("Path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotCache != "no-store" {
		t.Errorf("Cache-Control = %q", gotCache)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestListRecordsFollowsOffsets(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("offset") {
		case "":
			fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{}}],"offset":"itr/2"}`)
		case "itr/2":
			fmt.Fprint(w, `{"records":[{"id":"rec2","fields":{}},{"id":"rec3","fields":{}}]}`)
		default:
			t.Errorf("Unexpected offset %q", r.URL.Query().Get("offset"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient("app", "key", "Cues", WithAPIURL(srv.URL))
	records, err := c.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", calls.Load())
	}
}

func TestListRecordsStopsAtPageLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		fmt.Fprintf(w, `{"records":[{"id":"rec%d","fields":{}}],"offset":"next%d"}`, n, n)
	}))
	defer srv.Close()

	c := NewClient("app", "key", "Cues", WithAPIURL(srv.URL), WithMaxPages(3))
	records, err := c.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 3 || calls.Load() != 3 {
		t.Errorf("Expected 3 records from 3 calls, got %d from %d", len(records), calls.Load())
	}
}

func TestListRecordsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"type":"INVALID_PERMISSIONS"}}`)
	}))
	defer srv.Close()

	c := NewClient("app", "key", "Cues", WithAPIURL(srv.URL))
	_, err := c.ListRecords(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if statusErr.Code != 422 || statusErr.Status != "Unprocessable Entity" {
		t.Errorf("StatusError = %d %q", statusErr.Code, statusErr.Status)
	}
	if statusErr.Body != `{"error":{"type":"INVALID_PERMISSIONS"}}` {
		t.Errorf("Body = %q", statusErr.Body)
	}
}

func TestListRecordsInvalidShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer srv.Close()

	c := NewClient("app", "key", "Cues", WithAPIURL(srv.URL))
	_, err := c.ListRecords(context.Background())
	if !errors.Is(err, cues.ErrInvalidPage) {
		t.Errorf("Expected ErrInvalidPage, got %v", err)
	}
}

func TestListRecordsBodyTooLarge(t *testing.T) {
	body := `{"records":[{"id":"rec1","fields":{"title":"A long enough title"}}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{name: "exactly at limit", limit: int64(len(body)), wantErr: false},
		{name: "one byte over", limit: int64(len(body)) - 1, wantErr: true},
		{name: "far over", limit: 16, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("app", "key", "Cues", WithAPIURL(srv.URL))
			c.maxBody = tt.limit

			records, err := c.ListRecords(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrBodyTooLarge) {
					t.Errorf("Expected ErrBodyTooLarge, got %v", err)
				}
				return
			}
			if err != nil || len(records) != 1 {
				t.Errorf("Expected one record, got %d (%v)", len(records), err)
			}
		})
	}
}

func TestListRecordsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient("app", "key", "Cues", WithAPIURL(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := c.ListRecords(context.Background())
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) || errors.Is(err, cues.ErrInvalidPage) {
		t.Errorf("Timeout should be a transport error, got %v", err)
	}
}
