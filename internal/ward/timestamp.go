package ward

import (
	"fmt"
	"time"
)

// TimestampLayouts are the timestamp formats the ward API is known to emit,
// tried in order. The first layout that parses wins.
var TimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
}

// FormatError is returned when a timestamp matches none of TimestampLayouts
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unable to parse timestamp %q", e.Text)
}

// ParseTimestamp parses a ward API timestamp.
// An empty string yields ok == false and a nil error: the value is absent,
// which is not a format problem. Timestamps carry no zone and are read as UTC.
// The text must match a layout exactly, so fractional seconds are only
// accepted as the three digits of the millisecond layouts.
func ParseTimestamp(text string) (t time.Time, ok bool, err error) {
	if text == "" {
		return time.Time{}, false, nil
	}

	for _, layout := range TimestampLayouts {
		parsed, perr := time.Parse(layout, text)
		if perr == nil && parsed.Format(layout) == text {
			return parsed, true, nil
		}
	}

	return time.Time{}, false, &FormatError{Text: text}
}
