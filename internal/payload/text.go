package payload

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var kgsPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Text is a payload field that may arrive as a JSON string, number, boolean
// or null. Numbers keep their literal spelling ("13.0" stays "13.0").
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Upper is the trimmed, upper-cased value written into templates.
func (t Text) Upper() string {
	return strings.ToUpper(t.String())
}

// Empty reports whether the field is blank.
func (t Text) Empty() bool {
	return t.String() == ""
}

// Kgs reads the first number in the field, ignoring thousands separators and
// trailing units such as "13.73 kgs".
func (t Text) Kgs() (float64, bool) {
	s := strings.ReplaceAll(t.String(), ",", "")
	m := kgsPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
