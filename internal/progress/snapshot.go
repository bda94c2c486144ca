package progress

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the lifecycle state reported to pollers.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusCancelled   Status = "cancelled"
)

const (
	defaultSpeed = "0 KiB/s"
	defaultETA   = "00:00"
)

// Snapshot is an immutable view of the progress record.
type Snapshot struct {
	Progress float64 `json:"progress"`
	Speed    string  `json:"speed"`
	ETA      string  `json:"eta"`
	Status   Status  `json:"status"`
}

// Default returns the record every new download and reset starts from.
func Default() Snapshot {
	return Snapshot{Progress: 0, Speed: defaultSpeed, ETA: defaultETA, Status: StatusStarting}
}

// Sample is one progress report from the extraction engine.
type Sample struct {
	DownloadedBytes int64
	TotalBytes      int64
	// BytesPerSecond is zero when the engine has not measured a rate yet.
	BytesPerSecond float64
	ETA            time.Duration
	Finished       bool
}

// Percent returns the completion percentage, or -1 when the total is unknown.
func (s Sample) Percent() float64 {
	if s.Finished {
		return 100
	}
	if s.TotalBytes <= 0 {
		return -1
	}
	pct := float64(s.DownloadedBytes) / float64(s.TotalBytes) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// FormatSpeed renders a transfer rate such as "1.5 MiB/s".
func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return defaultSpeed
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}

// FormatETA renders a remaining duration as MM:SS, or H:MM:SS past an hour.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return defaultETA
	}
	total := int64(d.Round(time.Second) / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
