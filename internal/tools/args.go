package tools

import (
	"strconv"
	"strings"
)

// Argument extraction helpers. Decoded tool-call arguments arrive as
// map[string]any with JSON numbers as float64; models occasionally send
// numbers or booleans where strings are expected, so the helpers coerce
// rather than fail. All are nil-safe and never panic.

func getStringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return ""
}

func getBoolArg(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	if v, ok := args[key]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			lower := strings.ToLower(b)
			return lower == "true" || lower == "1" || lower == "yes"
		case float64:
			return b != 0
		}
	}
	return false
}

func getIntArg(args map[string]any, key string, defaultVal int) int {
	if args == nil {
		return defaultVal
	}
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i
			}
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return int(f)
			}
		}
	}
	return defaultVal
}
