// Package config loads the monitor's JSON configuration file and resolves it
// against built-in defaults. Fields omitted from the file keep their default
// values, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// Defaults applied when neither the config file nor flags supply a value.
const (
	DefaultPort              = 4000
	DefaultThresholdBytes    = 1024
	DefaultInactivityTimeout = 3 * time.Second
	DefaultMinPayloadBytes   = 20
	DefaultStatsInterval     = time.Minute
)

// FileConfig mirrors the JSON config file. All fields are pointers so a
// missing key is distinguishable from an explicit zero.
type FileConfig struct {
	// Capture params
	Port      *int    `json:"port,omitempty"`
	Host      *string `json:"host,omitempty"`
	Interface *string `json:"interface,omitempty"`
	PushOnly  *bool   `json:"push_only,omitempty"`

	// Detection params. Sizes accept humanized strings ("1K", "2 MiB");
	// durations accept strings like "3s" or "500ms".
	Threshold         *string `json:"threshold,omitempty"`
	InactivityTimeout *string `json:"inactivity_timeout,omitempty"`
	MinPayload        *string `json:"min_payload,omitempty"`

	// Notification params
	WebsocketURL *string `json:"websocket_url,omitempty"`

	// Reporting params
	StatsInterval *string `json:"stats_interval,omitempty"`
}

// Settings is the fully resolved runtime configuration.
type Settings struct {
	Port      int
	Host      string
	Interface string
	PushOnly  bool

	ThresholdBytes    uint64
	InactivityTimeout time.Duration
	MinPayloadBytes   uint64

	WebsocketURL string

	StatsInterval time.Duration
}

// DefaultSettings returns the built-in defaults: watch port 4000 for PSH
// segments, trigger at 1 KiB, reset after 3s quiet, ignore payloads under 20
// bytes.
func DefaultSettings() Settings {
	return Settings{
		Port:              DefaultPort,
		PushOnly:          true,
		ThresholdBytes:    DefaultThresholdBytes,
		InactivityTimeout: DefaultInactivityTimeout,
		MinPayloadBytes:   DefaultMinPayloadBytes,
		StatsInterval:     DefaultStatsInterval,
	}
}

// Load reads a FileConfig from a JSON file. The file is validated to ensure
// it has a .json extension and is under the max file size.
func Load(path string) (*FileConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// Apply overlays the file's values onto s. Invalid sizes or durations are
// reported with the offending key.
func (c *FileConfig) Apply(s *Settings) error {
	if c == nil {
		return nil
	}

	if c.Port != nil {
		s.Port = *c.Port
	}
	if c.Host != nil {
		s.Host = *c.Host
	}
	if c.Interface != nil {
		s.Interface = *c.Interface
	}
	if c.PushOnly != nil {
		s.PushOnly = *c.PushOnly
	}

	if c.Threshold != nil {
		v, err := ParseSize(*c.Threshold)
		if err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
		s.ThresholdBytes = v
	}
	if c.MinPayload != nil {
		v, err := ParseSize(*c.MinPayload)
		if err != nil {
			return fmt.Errorf("min_payload: %w", err)
		}
		s.MinPayloadBytes = v
	}
	if c.InactivityTimeout != nil {
		d, err := time.ParseDuration(*c.InactivityTimeout)
		if err != nil {
			return fmt.Errorf("inactivity_timeout: %w", err)
		}
		s.InactivityTimeout = d
	}
	if c.StatsInterval != nil {
		d, err := time.ParseDuration(*c.StatsInterval)
		if err != nil {
			return fmt.Errorf("stats_interval: %w", err)
		}
		s.StatsInterval = d
	}

	if c.WebsocketURL != nil {
		s.WebsocketURL = *c.WebsocketURL
	}

	return nil
}

// ParseSize parses a human-readable byte count. Plain numbers are bytes; SI
// ("2MB") and IEC ("2MiB") suffixes are both accepted.
func ParseSize(s string) (uint64, error) {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return v, nil
}

// Validate checks the resolved settings before wiring anything up.
func (s Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", s.Port)
	}
	if s.ThresholdBytes == 0 {
		return fmt.Errorf("threshold must be > 0 bytes")
	}
	if s.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity timeout must be > 0, got %v", s.InactivityTimeout)
	}
	if s.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be > 0, got %v", s.StatsInterval)
	}
	return nil
}
