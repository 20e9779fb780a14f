package ops

import (
	"encoding/json"
	"fmt"
)

// MonthSet is a month argument that may hold one month or several.
type MonthSet []string

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (m *MonthSet) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*m = nil
		} else {
			*m = MonthSet{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("months must be a string or list of strings: %w", err)
	}
	*m = many
	return nil
}
