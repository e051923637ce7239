package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a product or kit. Entries created in the local cache or
// shipped in the static catalog carry numeric millisecond timestamps, while
// remote store records carry store-generated strings; both are kept as text.
type ID string

// NewTimestampID returns an ID derived from a unix-millisecond timestamp.
func NewTimestampID(unixMilli int64) ID {
	return ID(strconv.FormatInt(unixMilli, 10))
}

func (id ID) String() string { return string(id) }

// IsNumeric reports whether the ID is written back as a JSON number.
func (id ID) IsNumeric() bool {
	s := string(id)
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("numeric id %s is not an integer", n)
	}
	*id = ID(n.String())
	return nil
}
