// Package transcript lists caption tracks for a video and turns the chosen
// track into a timestamped plain-text transcript.
//
// Track selection is an ordered chain of strategies: a manual track in the
// requested language, then an auto-generated one, then the auto-generated
// track in the configured fallback language translated into the requested
// language. The first strategy that yields a track wins; every strategy
// reports ErrNoTranscript when it has nothing to offer.
package transcript
