package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// fileConfig mirrors the on-disk top-level configuration.
type fileConfig struct {
	IP             []string `json:"ip" yaml:"ip"`
	Place          []string `json:"place" yaml:"place"`
	AlarmRowHeight *int     `json:"alarm_row_height" yaml:"alarm_row_height"`
	HushInterval   *int     `json:"hush_interval" yaml:"hush_interval"` // seconds
	Music          []string `json:"music" yaml:"music"`
	MusicVolume    *int     `json:"music_volume" yaml:"music_volume"`
}

// nodeEntry mirrors one record of a node list file.
type nodeEntry struct {
	IP         string  `json:"ip" yaml:"ip"`
	Name       string  `json:"name" yaml:"name"`
	SpeechName string  `json:"speech_name" yaml:"speech_name"`
	WaitDur    *int    `json:"wait_dur" yaml:"wait_dur"` // milliseconds
	Attempts   *int    `json:"attempts" yaml:"attempts"`
	GeoLoc     *GeoLoc `json:"geoloc" yaml:"geoloc"`
}

// placeEntry mirrors one record of a place list file.
type placeEntry struct {
	Name   string  `json:"name" yaml:"name"`
	GeoLoc *GeoLoc `json:"geoloc" yaml:"geoloc"`
	Char   string  `json:"char" yaml:"char"`
}

// Load reads the top-level configuration file and every node and place list
// it references. List paths are resolved relative to the configuration file.
func Load(path string) (*Config, error) {
	var raw fileConfig
	if err := decodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg := &Config{
		AlarmRowHeight: DefaultAlarmRowHeight,
		HushInterval:   DefaultHushInterval,
		MusicVolume:    DefaultMusicVolume,
		Music:          raw.Music,
	}
	if raw.AlarmRowHeight != nil {
		cfg.AlarmRowHeight = *raw.AlarmRowHeight
	}
	if raw.HushInterval != nil {
		cfg.HushInterval = time.Duration(*raw.HushInterval) * time.Second
	}
	if raw.MusicVolume != nil {
		cfg.MusicVolume = *raw.MusicVolume
	}
	if cfg.AlarmRowHeight < MinAlarmRowHeight {
		cfg.AlarmRowHeight = MinAlarmRowHeight
	}
	if cfg.HushInterval < MinHushInterval {
		cfg.HushInterval = MinHushInterval
	}
	if cfg.MusicVolume < 0 {
		cfg.MusicVolume = 0
	}
	if cfg.MusicVolume > 100 {
		cfg.MusicVolume = 100
	}

	baseDir := filepath.Dir(path)
	for _, fp := range raw.IP {
		nodes, err := LoadNodes(resolvePath(baseDir, fp))
		if err != nil {
			return nil, err
		}
		cfg.Nodes = append(cfg.Nodes, nodes...)
	}
	for _, fp := range raw.Place {
		places, err := LoadPlaces(resolvePath(baseDir, fp))
		if err != nil {
			return nil, err
		}
		cfg.Places = append(cfg.Places, places...)
	}

	return cfg, nil
}

// LoadNodes reads one node list file, substituting documented defaults for
// missing fields.
func LoadNodes(path string) ([]NodeConfig, error) {
	var entries []nodeEntry
	if err := decodeFile(path, &entries); err != nil {
		return nil, fmt.Errorf("node list %s: %w", path, err)
	}

	nodes := make([]NodeConfig, 0, len(entries))
	for _, e := range entries {
		node := NodeConfig{
			Address:    e.IP,
			Name:       e.Name,
			SpeechName: e.SpeechName,
			WaitDur:    DefaultWaitDur,
			Attempts:   DefaultAttempts,
			GeoLoc:     e.GeoLoc,
		}
		if node.Address == "" {
			node.Address = DefaultAddress
		}
		if node.Name == "" {
			node.Name = DefaultName
		}
		if node.SpeechName == "" {
			node.SpeechName = DefaultSpeechName
		}
		if e.WaitDur != nil && *e.WaitDur > 0 {
			node.WaitDur = time.Duration(*e.WaitDur) * time.Millisecond
		}
		if e.Attempts != nil && *e.Attempts > 0 {
			node.Attempts = *e.Attempts
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// LoadPlaces reads one place list file. Entries without a geolocation are
// invalid: a place exists only to be positioned.
func LoadPlaces(path string) ([]Place, error) {
	var entries []placeEntry
	if err := decodeFile(path, &entries); err != nil {
		return nil, fmt.Errorf("place list %s: %w", path, err)
	}

	places := make([]Place, 0, len(entries))
	for _, e := range entries {
		if e.GeoLoc == nil {
			return nil, fmt.Errorf("place list %s: place %q has no geoloc", path, e.Name)
		}
		places = append(places, Place{Name: e.Name, GeoLoc: *e.GeoLoc, Char: e.Char})
	}
	return places, nil
}

// decodeFile unmarshals path into v, choosing the codec by extension:
// .yaml/.yml via go-yaml, everything else as JSON (the original format).
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
