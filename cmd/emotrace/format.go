package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatShare(part, whole int) string {
	if whole == 0 {
		return formatCount(part)
	}
	return fmt.Sprintf("%s (%.1f%%)", formatCount(part), float64(part)/float64(whole)*100)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04:05"), humanize.Time(t))
}

func formatFileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
