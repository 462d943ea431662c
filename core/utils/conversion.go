package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt64 converts various types to int64 using explicit type switching.
// Strings may carry thousands separators ("1,500") or surrounding spaces.
// Unparseable input yields 0.
func ToInt64(val any) int64 {
	switch v := val.(type) {
	case nil:
		return 0
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case uint:
		return int64(v)
	case uint64:
		return int64(v)
	case uint32:
		return int64(v)
	case uint16:
		return int64(v)
	case uint8:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		i, _ := ParseInt(v)
		return i
	case []byte:
		i, _ := ParseInt(string(v))
		return i
	default:
		i, _ := ParseInt(fmt.Sprintf("%v", v))
		return i
	}
}

// ToInt is ToInt64 narrowed to int.
func ToInt(val any) int {
	return int(ToInt64(val))
}

// ParseInt parses a decimal integer, tolerating whitespace and thousands separators.
func ParseInt(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		return int64(f), true
	}
	return i, true
}

// ToString converts various types to string. nil becomes the empty string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (non-zero=true), and the textual switches
// devices print ("1", "true", "yes", "on", "enabled", "up").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8, float64, float32:
		return ToInt64(v) != 0
	case string:
		b, _ := ParseBool(v)
		return b
	case []byte:
		b, _ := ParseBool(string(v))
		return b
	default:
		return false
	}
}

// ParseBool interprets a device-printed switch value. ok is false when the
// value is not a recognized boolean word.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on", "enabled", "enable", "up":
		return true, true
	case "0", "false", "no", "n", "off", "disabled", "disable", "down":
		return false, true
	default:
		return false, false
	}
}
