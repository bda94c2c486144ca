package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"ytserve/internal/logging"
	"ytserve/internal/services"
)

// Options configures the language defaults of a Service.
type Options struct {
	DefaultLanguage  string
	FallbackLanguage string
}

// Service answers transcript questions for a video.
type Service struct {
	source      TrackSource
	fetcher     CueFetcher
	strategies  []Strategy
	defaultLang string
	logger      *slog.Logger
}

// NewService wires a track source and cue fetcher with the default strategy
// chain.
func NewService(source TrackSource, fetcher CueFetcher, opts Options, logger *slog.Logger) *Service {
	def := strings.TrimSpace(opts.DefaultLanguage)
	if def == "" {
		def = "en"
	}
	return &Service{
		source:      source,
		fetcher:     fetcher,
		strategies:  DefaultStrategies(strings.TrimSpace(opts.FallbackLanguage)),
		defaultLang: def,
		logger:      logging.NewComponentLogger(logger, "transcript"),
	}
}

// Languages lists every caption track of videoID.
func (s *Service) Languages(ctx context.Context, videoID string) ([]Language, error) {
	ctx, tracks, err := s.tracks(ctx, videoID, "languages")
	if err != nil {
		return nil, err
	}
	out := make([]Language, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, Language{Code: t.Code, Name: trackName(t), IsGenerated: t.Generated})
	}
	logging.WithContext(ctx, s.logger).Debug("transcript languages listed", logging.Int("tracks", len(out)))
	return out, nil
}

// Check reports whether videoID has any caption track. The error explains a
// negative answer.
func (s *Service) Check(ctx context.Context, videoID string) (bool, error) {
	if _, _, err := s.tracks(ctx, videoID, "check"); err != nil {
		return false, err
	}
	return true, nil
}

// Get resolves and renders the transcript of videoID in lang. An empty lang
// uses the configured default.
func (s *Service) Get(ctx context.Context, videoID, lang string) (*Transcript, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = s.defaultLang
	}
	if _, err := language.Parse(lang); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "validate", "Invalid language code", err)
	}
	ctx, tracks, err := s.tracks(ctx, videoID, "get")
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String("language", lang))

	choice, strategy, err := Resolve(s.strategies, tracks, lang)
	if err != nil {
		logger.Info("no transcript matched", logging.Error(err))
		return nil, services.Wrap(services.ErrNotFound, "transcript", "resolve",
			"No transcript found for language "+lang, err)
	}
	cues, err := s.fetcher.Fetch(ctx, choice.Track, choice.TranslateTo)
	if err != nil {
		logger.Error("transcript fetch failed", logging.String("strategy", strategy), logging.Error(err))
		return nil, err
	}

	name := trackName(choice.Track)
	if choice.TranslateTo != "" {
		name = DisplayName(choice.TranslateTo)
	}
	logger.Debug("transcript resolved",
		logging.String("strategy", strategy),
		logging.String("track", choice.Track.Code),
		logging.Int("cues", len(cues)),
	)
	return &Transcript{
		Text:        FormatCues(cues),
		Language:    name,
		IsGenerated: choice.Track.Generated,
	}, nil
}

func (s *Service) tracks(ctx context.Context, videoID, op string) (context.Context, []Track, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return ctx, nil, services.Wrap(services.ErrValidation, "transcript", op, "No video ID provided", nil)
	}
	ctx = services.WithVideoID(ctx, videoID)
	tracks, err := s.source.Tracks(ctx, videoID)
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("caption track lookup failed",
			logging.String(logging.FieldEventType, "caption_lookup_failed"),
			logging.Error(err),
		)
		return ctx, nil, err
	}
	if len(tracks) == 0 {
		return ctx, nil, services.Wrap(services.ErrNotFound, "transcript", op,
			"Transcripts are disabled for this video", ErrNoTranscript)
	}
	return ctx, tracks, nil
}

// IsNoTranscript reports whether err means the video simply has no usable
// track.
func IsNoTranscript(err error) bool {
	return errors.Is(err, ErrNoTranscript)
}
