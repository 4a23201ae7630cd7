package tui

import (
	"fmt"
	"time"
)

func fmtDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatThroughput(bytesPerSec float64) string {
	switch {
	case bytesPerSec < 1024:
		return fmt.Sprintf("%.2f B/s", bytesPerSec)
	case bytesPerSec < 1024*1024:
		return fmt.Sprintf("%.2f KB/s", bytesPerSec/1024)
	default:
		return fmt.Sprintf("%.2f MB/s", bytesPerSec/(1024*1024))
	}
}

func renderSparkline(values []int64) string {
	if len(values) == 0 {
		return ""
	}
	levels := []string{" ", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	var max int64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	out := ""
	for _, v := range values {
		if max == 0 {
			out += levels[0]
			continue
		}
		idx := int(v * 7 / max)
		if idx > 7 {
			idx = 7
		}
		out += levels[idx]
	}
	return out
}
