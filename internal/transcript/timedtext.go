package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ytserve/internal/services"
)

const maxTimedTextBody = 8 << 20

// TimedTextFetcher downloads caption tracks from YouTube's timedtext
// endpoint.
type TimedTextFetcher struct {
	client *http.Client
}

// NewTimedTextFetcher returns a fetcher using client, or a client with the
// given timeout when client is nil.
func NewTimedTextFetcher(client *http.Client, timeout time.Duration) *TimedTextFetcher {
	if client == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &TimedTextFetcher{client: client}
}

// Fetch implements CueFetcher.
func (f *TimedTextFetcher) Fetch(ctx context.Context, track Track, translateTo string) ([]Cue, error) {
	endpoint, err := trackURL(track.BaseURL, translateTo)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "timedtext", "url", "Invalid caption URL", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "timedtext", "request", "Failed to build request", err)
	}
	req.Header.Set("Accept-Language", "en-US")
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrCanceled, "timedtext", "fetch", "Request cancelled", ctx.Err())
		}
		return nil, services.Wrap(services.ErrExternalTool, "timedtext", "fetch", "Caption request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBody))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "timedtext", "read", "Failed to read captions", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalTool, "timedtext", "fetch",
			fmt.Sprintf("Caption request returned %d", resp.StatusCode), nil)
	}
	cues, err := ParseTimedText(body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "timedtext", "parse", "Malformed caption data", err)
	}
	return cues, nil
}

// trackURL drops any explicit format so the endpoint returns XML, and adds
// the translation target.
func trackURL(base, translateTo string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("caption url %q is not absolute", base)
	}
	q := u.Query()
	q.Del("fmt")
	if translateTo != "" {
		q.Set("tlang", translateTo)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type timedTextDoc struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			T        int64  `xml:"t,attr"`
			D        int64  `xml:"d,attr"`
			Text     string `xml:",chardata"`
			Segments []struct {
				Text string `xml:",chardata"`
			} `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

// ParseTimedText decodes both the legacy <transcript><text> layout and the
// srv3 <timedtext><body><p> layout. Empty cues are dropped.
func ParseTimedText(data []byte) ([]Cue, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("empty caption document: %w", ErrNoTranscript)
	}
	var doc timedTextDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	cues := make([]Cue, 0, len(doc.Texts)+len(doc.Body.Paragraphs))
	for _, t := range doc.Texts {
		text := cleanCueText(t.Body)
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		cues = append(cues, Cue{Start: start, Duration: dur, Text: text})
	}
	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		b.WriteString(p.Text)
		for _, s := range p.Segments {
			b.WriteString(s.Text)
		}
		text := cleanCueText(b.String())
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Start:    float64(p.T) / 1000,
			Duration: float64(p.D) / 1000,
			Text:     text,
		})
	}
	return cues, nil
}

// cleanCueText undoes YouTube's second level of entity escaping and folds
// line breaks.
func cleanCueText(raw string) string {
	text := html.UnescapeString(raw)
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.Join(strings.Fields(text), " ")
}
