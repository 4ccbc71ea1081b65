package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UserID is a backend user identifier. The backend sends it as a JSON number in
// some payloads and as a string in others, so both decode to the same value.
type UserID string

func (u UserID) String() string {
	return string(u)
}

func (u UserID) IsZero() bool {
	return u == ""
}

func (u *UserID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*u = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	*u = UserID(raw)
	return nil
}

func (u UserID) MarshalJSON() ([]byte, error) {
	// Only canonical decimals go out bare; "007" or "+5" stay strings.
	if n, err := strconv.ParseInt(string(u), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(u) {
		return []byte(u), nil
	}
	return json.Marshal(string(u))
}
