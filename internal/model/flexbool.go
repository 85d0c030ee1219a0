package model

import (
	"encoding/json"
	"strings"
)

// FlexBool accepts JSON booleans as well as the strings "true", "1" and "yes".
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*b = FlexBool(asBool)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		var asNumber json.Number
		if numErr := json.Unmarshal(data, &asNumber); numErr != nil {
			return err
		}
		asString = asNumber.String()
	}

	*b = FlexBool(ParseFlag(asString))
	return nil
}

// ParseFlag interprets form-style truthy values.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
