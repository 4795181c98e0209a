package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var null = []byte("null")

// flexString accepts a JSON string or number (ids come both ways)
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, null) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexDecimal accepts 12.5, "12.5" and "$12.50"
type flexDecimal struct {
	decimal.Decimal
	Set bool
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}

	s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(string(raw))
	if s == "" {
		*f = flexDecimal{}
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", string(raw), err)
	}
	*f = flexDecimal{Decimal: d, Set: true}
	return nil
}

// flexInt accepts 2 and "2"
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	if raw == "" {
		*f = 0
		return nil
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil || !d.IsInteger() {
		return fmt.Errorf("invalid integer %q", string(raw))
	}
	*f = flexInt(d.IntPart())
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// flexTime accepts RFC3339 (with or without zone) and epoch seconds/millis
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	s := string(raw)
	if s == "" {
		f.Time = time.Time{}
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			f.Time = time.UnixMilli(n).UTC()
		} else {
			f.Time = time.Unix(n, 0).UTC()
		}
		return nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
