package transcript

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrNoTranscript is returned when no caption track satisfies a request.
var ErrNoTranscript = errors.New("no transcript available")

// Track is one caption track YouTube offers for a video.
type Track struct {
	Code string
	// Name is the label YouTube shows for the track, when it provides one.
	Name         string
	Generated    bool
	Translatable bool
	BaseURL      string
}

// Language describes a track for clients.
type Language struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	IsGenerated bool   `json:"isGenerated"`
}

// Cue is one timed caption line.
type Cue struct {
	Start    float64
	Duration float64
	Text     string
}

// Transcript is the rendered result of a lookup.
type Transcript struct {
	Text        string `json:"transcript"`
	Language    string `json:"language"`
	IsGenerated bool   `json:"isGenerated"`
}

// TrackSource lists the caption tracks of a video.
type TrackSource interface {
	Tracks(ctx context.Context, videoID string) ([]Track, error)
}

// CueFetcher downloads the cues of a track, translated into translateTo when
// it is non-empty.
type CueFetcher interface {
	Fetch(ctx context.Context, track Track, translateTo string) ([]Cue, error)
}

// DisplayName returns the English name of a language code, e.g. "French" for
// "fr". Unknown codes are returned unchanged.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if strings.TrimSpace(name) == "" {
		return code
	}
	return name
}

// trackName prefers the label YouTube supplied and otherwise mirrors how its
// player names tracks.
func trackName(t Track) string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	name := DisplayName(t.Code)
	if t.Generated {
		name += " (auto-generated)"
	}
	return name
}

// sameLanguage compares two codes by their base language subtag when either
// side carries no region, so "en" matches "en-US" but "pt-BR" does not match
// "pt-PT".
func sameLanguage(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	if ta == tb {
		return true
	}
	if strings.Contains(a, "-") && strings.Contains(b, "-") {
		return false
	}
	baseA, _ := ta.Base()
	baseB, _ := tb.Base()
	return baseA == baseB
}
