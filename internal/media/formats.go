package media

import (
	"fmt"
	"sort"
	"strings"
)

// FormatType distinguishes video and audio descriptors.
type FormatType string

const (
	FormatVideo FormatType = "video"
	FormatAudio FormatType = "audio"
)

// AudioPrefix marks a format ID that selects a raw yt-dlp audio stream.
const AudioPrefix = "audio_"

// FormatOption is a downloadable choice presented to clients.
type FormatOption struct {
	FormatID  string     `json:"formatId"`
	Extension string     `json:"extension"`
	Quality   string     `json:"quality"`
	Label     string     `json:"label"`
	VCodec    string     `json:"vcodec,omitempty"`
	Type      FormatType `json:"type"`
	Codec     string     `json:"codec,omitempty"`
}

type tier struct {
	Height int
	ID     string
	Label  string
}

// resolutionTiers lists the offered video tiers, highest first.
var resolutionTiers = []tier{
	{2160, "4k", "4K (2160p)"},
	{1440, "1440p", "QHD (1440p)"},
	{1080, "1080p", "Full HD (1080p)"},
	{720, "720p", "HD (720p)"},
	{480, "480p", "SD (480p)"},
}

type audioBucket struct {
	key   string
	min   float64
	label string
}

// audioBuckets are checked in order; the first whose minimum is met wins.
var audioBuckets = []audioBucket{
	{"high", 256, "High Quality"},
	{"medium", 128, "Medium Quality"},
	{"low", 0, "Low Quality"},
}

// BuildFormatOptions reduces the streams of a video to at most one option per
// resolution tier and one per audio quality bucket. Video options come first,
// highest resolution first.
func BuildFormatOptions(formats []StreamFormat) []FormatOption {
	options := videoOptions(formats)
	return append(options, audioOptions(formats)...)
}

func videoOptions(formats []StreamFormat) []FormatOption {
	best := map[int]StreamFormat{}
	for _, f := range formats {
		if f.VCodec == "none" || f.ACodec != "none" || f.Height <= 0 {
			continue
		}
		current, ok := best[f.Height]
		if !ok || f.Filesize > current.Filesize {
			best[f.Height] = f
		}
	}

	options := make([]FormatOption, 0, len(resolutionTiers))
	for _, t := range resolutionTiers {
		f, ok := best[t.Height]
		if !ok {
			continue
		}
		options = append(options, FormatOption{
			FormatID:  t.ID,
			Extension: "mp4",
			Quality:   fmt.Sprintf("%dp", t.Height),
			Label:     t.Label,
			VCodec:    f.VCodec,
			Type:      FormatVideo,
		})
	}
	return options
}

func audioOptions(formats []StreamFormat) []FormatOption {
	var candidates []StreamFormat
	for _, f := range formats {
		if f.VCodec != "none" || f.ACodec == "none" || f.ABR <= 0 {
			continue
		}
		if strings.Contains(f.Protocol, "dash") {
			continue
		}
		candidates = append(candidates, f)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ABR > candidates[j].ABR })

	used := map[string]bool{}
	var options []FormatOption
	for _, f := range candidates {
		// Buckets are strict: a stream only lands in low when it is under
		// 128kbps, so 160 and 129kbps streams yield a single medium entry.
		bucket := bucketFor(f.ABR)
		if used[bucket.key] {
			continue
		}
		used[bucket.key] = true
		kbps := int(f.ABR)
		options = append(options, FormatOption{
			FormatID:  AudioPrefix + f.FormatID,
			Extension: "mp3",
			Quality:   fmt.Sprintf("%dkbps", kbps),
			Label:     fmt.Sprintf("Audio - %s (%dkbps)", bucket.label, kbps),
			Type:      FormatAudio,
			Codec:     f.ACodec,
		})
		if len(used) == len(audioBuckets) {
			break
		}
	}
	return options
}

func bucketFor(abr float64) audioBucket {
	for _, b := range audioBuckets {
		if abr >= b.min {
			return b
		}
	}
	return audioBuckets[len(audioBuckets)-1]
}
