package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// WireTimeLayout is the format the API uses for every timestamp.
const WireTimeLayout = "2006-01-02 15:04:05"

// Timestamp is a time.Time that travels as a WireTimeLayout string.
// RFC 3339 input is accepted as well.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(WireTimeLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{WireTimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// Display formats the time like "Jan 02, 2006, 03:04:05 PM".
func (t Timestamp) Display() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02, 2006, 03:04:05 PM")
}
