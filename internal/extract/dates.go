package extract

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

var dateParserConfig = &dateparser.Configuration{
	DefaultTimezone: time.UTC,
}

// NormalizeDate parses a publish-date string from any extraction stage
// and returns it as a UTC timestamp. Unparseable input yields nil
// ("date unknown") rather than an error; every date in the pipeline
// passes through here so the fallback behavior is uniform.
func NormalizeDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := dateparser.Parse(dateParserConfig, value)
	if err != nil || parsed.Time.IsZero() {
		return nil
	}
	utc := parsed.Time.UTC()
	return &utc
}

// NormalizeTime converts an already-parsed timestamp to the same UTC
// representation NormalizeDate produces. Zero times map to nil.
func NormalizeTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
