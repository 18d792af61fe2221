package intake

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// ClockTime is a time of day without date or zone, e.g. "08:00" or "17:30:15".
type ClockTime struct {
	seconds int
}

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseClockTime accepts HH:MM and HH:MM:SS.
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return ClockTime{seconds: t.Hour()*3600 + t.Minute()*60 + t.Second()}, nil
		}
	}
	return ClockTime{}, eris.Errorf("invalid time of day %q (expected HH:MM or HH:MM:SS)", s)
}

// MustClockTime parses s and panics on error. Intended for tests and fixtures.
func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Before reports whether c is strictly earlier in the day than o.
func (c ClockTime) Before(o ClockTime) bool { return c.seconds < o.seconds }

// String formats as HH:MM, or HH:MM:SS when seconds are set.
func (c ClockTime) String() string {
	h, m, s := c.seconds/3600, (c.seconds%3600)/60, c.seconds%60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "time of day must be a string")
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
