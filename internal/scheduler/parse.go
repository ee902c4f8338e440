package scheduler

import (
	"fmt"
	"regexp"
)

var reClock = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)

// ParseClock parses a wall-clock "HH:MM" string (00-23 hours, 00-59 minutes).
func ParseClock(v string) (hour, minute int, err error) {
	m := reClock.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, 0, fmt.Errorf("invalid time %q (use HH:MM, e.g. \"08:00\")", v)
	}
	for i := 0; i < len(m[1]); i++ {
		hour = hour*10 + int(m[1][i]-'0')
	}
	minute = int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("invalid minutes in %q", v)
	}
	return hour, minute, nil
}

// dailySpec compiles "HH:MM" into a standard 5-field cron expression.
func dailySpec(v string) (string, error) {
	h, m, err := ParseClock(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}
