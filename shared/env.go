package shared

import (
	"fmt"
	"os"
	"strconv"
)

func GetEnv(key string) (string, error) {
	value, set := os.LookupEnv(key)
	if !set {
		return "", fmt.Errorf("environment variable must be set: %s", key)
	}
	return value, nil
}

func GetEnvDefault(key, defaultValue string) string {
	if value, set := os.LookupEnv(key); set {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value, set := os.LookupEnv(key); set {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
