package transcript

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytserve/internal/services"
)

func TestParseTimedTextLegacy(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.1">it&amp;#39;s here</text>
<text start="3" dur="1">  </text>
<text start="61.2" dur="1.5">line one
line two</text>
</transcript>`
	cues, err := ParseTimedText([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTimedText returned error: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %+v", cues)
	}
	if cues[0].Text != "it's here" || cues[0].Start != 0.5 || cues[0].Duration != 2.1 {
		t.Fatalf("unexpected first cue %+v", cues[0])
	}
	if cues[1].Text != "line one line two" {
		t.Fatalf("unexpected second cue %+v", cues[1])
	}
}

func TestParseTimedTextSrv3(t *testing.T) {
	doc := `<timedtext format="3"><body>
<p t="1500" d="2000"><s>hello</s><s> world</s></p>
<p t="4000" d="100">plain</p>
</body></timedtext>`
	cues, err := ParseTimedText([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTimedText returned error: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "hello world" || cues[0].Start != 1.5 || cues[1].Text != "plain" {
		t.Fatalf("unexpected cues %+v", cues)
	}
}

func TestParseTimedTextEmpty(t *testing.T) {
	if _, err := ParseTimedText([]byte("  ")); !IsNoTranscript(err) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}
	if _, err := ParseTimedText([]byte("<transcript><text")); err == nil {
		t.Fatal("expected malformed xml error")
	}
}

func TestTimedTextFetcherRequest(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`<transcript><text start="2" dur="1">hi</text></transcript>`))
	}))
	defer server.Close()

	fetcher := NewTimedTextFetcher(server.Client(), 0)
	cues, err := fetcher.Fetch(context.Background(), Track{BaseURL: server.URL + "/api/timedtext?v=vid&lang=hi&fmt=srv3"}, "fr")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(cues) != 1 || cues[0].Text != "hi" {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if _, ok := gotQuery["fmt"]; ok {
		t.Fatalf("expected fmt to be dropped, got %v", gotQuery)
	}
	if gotQuery["tlang"][0] != "fr" || gotQuery["lang"][0] != "hi" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
}

func TestTimedTextFetcherErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := NewTimedTextFetcher(server.Client(), 0)
	if _, err := fetcher.Fetch(context.Background(), Track{BaseURL: server.URL}, ""); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, err := fetcher.Fetch(context.Background(), Track{BaseURL: "/relative"}, ""); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected url error, got %v", err)
	}
}
