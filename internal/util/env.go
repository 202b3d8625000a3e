package util

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv returns the value of the environment variable with the given key,
// falling back to defaultVal when unset or empty.
func GetEnv(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

// GetEnvAsInt returns the environment variable parsed as int, falling back
// to defaultVal when unset or malformed.
func GetEnvAsInt(key string, defaultVal int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetEnvAsBool returns the environment variable parsed as bool, falling back
// to defaultVal when unset or malformed.
func GetEnvAsBool(key string, defaultVal bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// GetEnvAsStringArr returns the environment variable split on commas with
// whitespace trimmed, falling back to defaultVal when unset or empty.
func GetEnvAsStringArr(key string, defaultVal []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
