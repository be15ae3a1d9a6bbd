package usage

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Window is one rolling allowance. Utilization is a percentage, 55 means
// 55%.
type Window struct {
	Utilization float64 `json:"utilization"`
	ResetsAt    string  `json:"resets_at"`
}

// Remaining is the unused share, never negative.
func (w Window) Remaining() float64 {
	return math.Max(0, 100-w.Utilization)
}

// Level buckets utilization for colouring.
type Level int

const (
	LevelOK Level = iota
	LevelWarning
	LevelCritical
)

func (w Window) Level() Level {
	switch {
	case w.Utilization >= 90:
		return LevelCritical
	case w.Utilization >= 70:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Report is the decoded usage response. Raw keeps the document as the API
// sent it.
type Report struct {
	FiveHour *Window        `json:"five_hour"`
	SevenDay *Window        `json:"seven_day"`
	Raw      json.RawMessage `json:"-"`
}

// Period names a window of a Report.
type Period struct {
	Name   string
	Window *Window
}

// Periods lists the windows in display order.
func (r *Report) Periods() []Period {
	return []Period{
		{Name: "5 hours", Window: r.FiveHour},
		{Name: "7 days", Window: r.SevenDay},
	}
}

// FormatResetTime renders resetsAt relative to now. Timestamps that do not
// parse are returned unchanged.
func FormatResetTime(resetsAt string, now time.Time) string {
	if resetsAt == "" {
		return "N/A"
	}

	reset, err := time.Parse(time.RFC3339Nano, resetsAt)
	if err != nil {
		return resetsAt
	}

	diff := reset.Sub(now)
	if diff < 0 {
		return "resetting soon"
	}

	total := int(diff.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60

	switch {
	case hours > 24:
		return fmt.Sprintf("%dd %dh", hours/24, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Bar draws utilization as width cells, filled cells first.
func Bar(utilization float64, width int) (filled, empty string) {
	n := int(float64(width) * utilization / 100)
	n = max(0, min(width, n))
	return strings.Repeat("█", n), strings.Repeat("░", width-n)
}
