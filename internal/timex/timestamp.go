package timex

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is the lastModified value of the Twos export. The API is not
// consistent about its encoding: it arrives either as unix milliseconds or as
// a date string. Locally it is stored as unix milliseconds.
type Timestamp struct {
	time.Time
	// Raw is the JSON value the timestamp was decoded from. It is empty for
	// values built locally or read from the database.
	Raw json.RawMessage
}

// textLayouts are tried in order for string values that are not integers.
var textLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// FromMillis builds a Timestamp from unix milliseconds.
func FromMillis(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// Millis returns the unix millisecond value, 0 for the zero time.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// UnmarshalJSON accepts numbers, integer strings and common date strings.
// A string in no known format decodes to the zero time; Raw still keeps it.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	parsed, err := decodeJSONTime(b)
	if err != nil {
		return err
	}
	t.Time = parsed
	t.Raw = nil
	if len(b) > 0 && !bytes.Equal(b, []byte("null")) {
		t.Raw = append(json.RawMessage(nil), b...)
	}
	return nil
}

func decodeJSONTime(b []byte) (time.Time, error) {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return time.Time{}, nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return time.Time{}, err
		}
		return parseText(s), nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	return FromMillis(int64(f)).Time, nil
}

func parseText(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromMillis(ms).Time
	}
	// Date.prototype.toString appends the zone name in parentheses.
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	for _, layout := range textLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// MarshalJSON echoes Raw when the value came from JSON, otherwise it writes
// RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	return t.Millis(), nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	t.Raw = nil
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case int64:
		if v == 0 {
			t.Time = time.Time{}
			return nil
		}
		*t = FromMillis(v)
	default:
		return fmt.Errorf("timex: cannot scan %T into Timestamp", src)
	}
	return nil
}
