package utils

import (
	"strconv"

	"github.com/synthhealth/datasynth/conf"
)

func GetEnvInt(varName string, defaultVal int) int {
	v := conf.GetEnv(varName)
	if v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultVal
}

func GetEnvFloat(varName string, defaultVal float64) float64 {
	v := conf.GetEnv(varName)
	if v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultVal
}

// ContainsString searches a slice for an exact match.
func ContainsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
