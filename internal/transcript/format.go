package transcript

import (
	"fmt"
	"strings"
)

// FormatCues renders cues as "[MM:SS] text" lines. Minutes are not wrapped
// into hours so long videos read "[75:02]".
func FormatCues(cues []Cue) string {
	lines := make([]string, 0, len(cues))
	for _, c := range cues {
		start := int(c.Start)
		if start < 0 {
			start = 0
		}
		lines = append(lines, fmt.Sprintf("[%02d:%02d] %s", start/60, start%60, c.Text))
	}
	return strings.Join(lines, "\n")
}
