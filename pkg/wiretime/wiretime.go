// Package wiretime converts between the rental API's timestamp wire format,
// the editable form representation used by the console, and time.Time.
//
// The API speaks UTC-naive "YYYY-MM-DD HH:MM:SS". Rows read back from the API
// may instead carry RFC 1123 ("Mon, 02 Jan 2006 15:04:05 GMT") or RFC 3339
// values; every accepted layout is interpreted as UTC.
package wiretime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	WireLayout  = "2006-01-02 15:04:05"
	InputLayout = "2006-01-02T15:04"
)

var readLayouts = []string{
	WireLayout,
	time.RFC1123,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	InputLayout,
}

// Format renders t in the wire format after converting it to UTC.
func Format(t time.Time) string {
	return t.UTC().Format(WireLayout)
}

// Parse reads any timestamp layout the API is known to emit.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ToInput renders t as the editable "YYYY-MM-DDTHH:MM" form value using UTC
// wall-clock fields. Seconds are dropped.
func ToInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(InputLayout)
}

// FromInput parses an editable form value. Values with seconds are accepted.
func FromInput(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(InputLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DDTHH:MM", s)
	}
	return t, nil
}

// InputToWire converts a form value straight to the wire format.
func InputToWire(s string) (string, error) {
	t, err := FromInput(s)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}

// Timestamp is a time.Time that decodes from any API layout and encodes in
// the wire format. A JSON null leaves it zero.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(Format(ts.Time))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := Parse(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}
