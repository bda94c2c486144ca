package transcript

import "fmt"

// Choice is a resolved track plus the language it must be translated into,
// if any.
type Choice struct {
	Track       Track
	TranslateTo string
}

// Strategy picks a track for the requested language out of the available
// ones.
type Strategy interface {
	Name() string
	Pick(tracks []Track, lang string) (Choice, error)
}

type manualStrategy struct{}

func (manualStrategy) Name() string { return "manual" }

func (manualStrategy) Pick(tracks []Track, lang string) (Choice, error) {
	for _, t := range tracks {
		if !t.Generated && sameLanguage(t.Code, lang) {
			return Choice{Track: t}, nil
		}
	}
	return Choice{}, fmt.Errorf("manual %s: %w", lang, ErrNoTranscript)
}

type generatedStrategy struct{}

func (generatedStrategy) Name() string { return "generated" }

func (generatedStrategy) Pick(tracks []Track, lang string) (Choice, error) {
	for _, t := range tracks {
		if t.Generated && sameLanguage(t.Code, lang) {
			return Choice{Track: t}, nil
		}
	}
	return Choice{}, fmt.Errorf("generated %s: %w", lang, ErrNoTranscript)
}

// translatedStrategy uses the auto-generated track in a fallback language and
// asks YouTube to translate it.
type translatedStrategy struct {
	fallback string
}

func (s translatedStrategy) Name() string { return "translated" }

func (s translatedStrategy) Pick(tracks []Track, lang string) (Choice, error) {
	if s.fallback == "" {
		return Choice{}, fmt.Errorf("no fallback language: %w", ErrNoTranscript)
	}
	for _, t := range tracks {
		if !t.Generated || !sameLanguage(t.Code, s.fallback) {
			continue
		}
		if sameLanguage(lang, s.fallback) {
			return Choice{Track: t}, nil
		}
		if !t.Translatable {
			return Choice{}, fmt.Errorf("fallback %s not translatable: %w", s.fallback, ErrNoTranscript)
		}
		return Choice{Track: t, TranslateTo: lang}, nil
	}
	return Choice{}, fmt.Errorf("fallback %s: %w", s.fallback, ErrNoTranscript)
}

// DefaultStrategies returns the lookup chain used by the service.
func DefaultStrategies(fallback string) []Strategy {
	return []Strategy{manualStrategy{}, generatedStrategy{}, translatedStrategy{fallback: fallback}}
}

// Resolve walks the strategies in order and returns the first match. The
// error from the last strategy is returned when none match.
func Resolve(strategies []Strategy, tracks []Track, lang string) (Choice, string, error) {
	err := fmt.Errorf("no strategies: %w", ErrNoTranscript)
	for _, s := range strategies {
		var choice Choice
		choice, err = s.Pick(tracks, lang)
		if err == nil {
			return choice, s.Name(), nil
		}
	}
	return Choice{}, "", err
}
