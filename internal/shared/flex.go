package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString is an identifier the backend may send as a JSON number or a JSON
// string. It is always encoded back as a string.
type FlexString string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the raw identifier.
func (f FlexString) String() string {
	return string(f)
}

// Int parses the identifier as an integer.
func (f FlexString) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsZero reports whether the identifier is empty.
func (f FlexString) IsZero() bool {
	return f == ""
}
