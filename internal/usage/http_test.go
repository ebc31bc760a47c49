package usage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tessro/stemdeck/internal/core"
)

func TestHTTPReporterPostsJSON(t *testing.T) {
	var got Listen
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	r := NewHTTPReporter(server.URL, "secret")
	err := r.Report(context.Background(), Listen{ID: "l1", TrackID: "t1", StemID: "bass", SourceKind: core.SourceStem, DurationPlayedSeconds: 31})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if got.TrackID != "t1" || got.StemID != "bass" || got.DurationPlayedSeconds != 31 {
		t.Errorf("server received %+v", got)
	}
}

func TestHTTPReporterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewHTTPReporter(server.URL, "").Report(context.Background(), Listen{TrackID: "t1"}); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPReporterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if err := NewHTTPReporter(server.URL, "").Report(context.Background(), Listen{TrackID: "t1"}); err == nil {
		t.Fatal("expected error for 400")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
