// Package config reads service configuration from a YAML file (viper) with
// secrets optionally overridden from the environment.
package config

import (
	"io"
	"time"
)

// Config exposes typed lookups over a key/value configuration tree.
// Missing keys yield zero values; callers apply their own defaults.
type Config interface {
	io.Closer

	IsSet(key string) bool
	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond, GetMinute and GetHour read an integer and scale it.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	// GetArray reads "a,b,c". Blank elements are dropped.
	GetArray(key string) []string
	// GetMap reads "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
