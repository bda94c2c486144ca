package media

import "strings"

const defaultQuality = "1080p"

// qualitySelectors maps quality tokens to yt-dlp format selectors. The webm
// pair is preferred; the fallback keeps the height bound.
var qualitySelectors = map[string]string{
	"4k":    "bestvideo[height<=2160][ext=webm]+bestaudio[ext=webm]/best[height<=2160]",
	"1440p": "bestvideo[height<=1440][ext=webm]+bestaudio[ext=webm]/best[height<=1440]",
	"1080p": "bestvideo[height<=1080][ext=webm]+bestaudio[ext=webm]/best[height<=1080]",
	"720p":  "bestvideo[height=720][ext=webm]+bestaudio[ext=webm]/best[height=720]",
	"480p":  "bestvideo[height=480][ext=webm]+bestaudio[ext=webm]/best[height=480]",
}

// Selection is the resolved meaning of a client format ID.
type Selection struct {
	Audio bool
	// Format is the yt-dlp -f argument.
	Format string
}

// Select resolves a client format ID. IDs with the audio prefix select that
// raw stream for audio extraction; every other value is a quality token, and
// unknown tokens fall back to 1080p.
func Select(formatID string) Selection {
	formatID = strings.TrimSpace(formatID)
	if streamID, ok := strings.CutPrefix(formatID, AudioPrefix); ok {
		return Selection{Audio: true, Format: streamID}
	}
	selector, ok := qualitySelectors[formatID]
	if !ok {
		selector = qualitySelectors[defaultQuality]
	}
	return Selection{Format: selector}
}
