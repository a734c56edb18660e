package utils

import (
	"encoding/json"
	"fmt"
)

// ConvertString renders any value as a string for log metadata.
func ConvertString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case error:
		return val.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
