package config

import "time"

// Defaults for missing node fields and global settings.
const (
	DefaultAddress    = "127.0.0.1"
	DefaultName       = "localhost"
	DefaultSpeechName = "localhost"
	DefaultWaitDur    = 500 * time.Millisecond
	DefaultAttempts   = 4

	DefaultHushInterval   = 30 * time.Second
	DefaultAlarmRowHeight = 2
	DefaultMusicVolume    = 20

	MinHushInterval   = time.Second
	MinAlarmRowHeight = 2
)

// MetricsMode describes the granularity of exported metrics.
type MetricsMode string

const (
	MetricsModePerNode    MetricsMode = "per-node"
	MetricsModeAggregated MetricsMode = "aggregated"
	MetricsModeBoth       MetricsMode = "both"
)

// GeoLoc is a node or place position in degrees.
type GeoLoc struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NodeConfig describes one monitored endpoint. All fields are immutable for
// the process lifetime once loaded.
type NodeConfig struct {
	Address    string
	Name       string
	SpeechName string
	WaitDur    time.Duration // per-attempt timeout
	Attempts   int
	GeoLoc     *GeoLoc
}

// Place is a named map landmark.
type Place struct {
	Name   string
	GeoLoc GeoLoc
	Char   string
}

// Config is the fully resolved configuration: referenced node and place list
// files are loaded inline, defaults substituted, and bounds clamped.
type Config struct {
	Nodes          []NodeConfig
	Places         []Place
	AlarmRowHeight int
	HushInterval   time.Duration
	Music          []string
	MusicVolume    int
}
