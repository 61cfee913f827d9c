package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		str = str[1:]
	}

	var result []byte
	for i := len(str) - 1; i >= 0; i-- {
		if (len(str)-i-1)%3 == 0 && i != len(str)-1 {
			result = append([]byte{','}, result...)
		}
		result = append([]byte{str[i]}, result...)
	}

	if n < 0 {
		return "-" + string(result)
	}
	return string(result)
}

// FormatDuration renders a duration like "1h 25m" or "45s".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		if seconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", seconds)
}

// FormatUptime renders an uptime like "1d 2h 3m 4s".
func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds())
	days := seconds / (3600 * 24)
	hours := (seconds % (3600 * 24)) / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}

// DiscordTimestamp renders a Discord timestamp tag. Style "R" is relative,
// "F" full date-time.
func DiscordTimestamp(t time.Time, style string) string {
	if style == "" {
		style = "R"
	}
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

// FormatTimeIn renders t as "2006-01-02 15:04:05" in the given location.
func FormatTimeIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04:05")
}

// TimeUntilNextRun computes how long until the next daily fire at
// hour:minute in loc.
func TimeUntilNextRun(now time.Time, hour, minute int, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(local)
}
