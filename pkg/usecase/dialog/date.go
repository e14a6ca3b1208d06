package dialog

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"02/01/2006",
}

// ParseDate parses a date filter in local time. An empty string is the zero
// time, which disables the filter.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, goerr.New("invalid date, use YYYY-MM-DD", goerr.V("date", s))
}
