package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Validation(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-json extension", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "monitor.yaml", "{}")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "monitor.json", "{not json")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestApply_PartialConfigKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "monitor.json", `{"port": 8443, "threshold": "2KiB"}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s := DefaultSettings()
	require.NoError(t, cfg.Apply(&s))

	want := DefaultSettings()
	want.Port = 8443
	want.ThresholdBytes = 2048

	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_FullConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "monitor.json", `{
		"port": 9000,
		"host": "10.1.2.3",
		"interface": "eth1",
		"push_only": false,
		"threshold": "1MiB",
		"inactivity_timeout": "1500ms",
		"min_payload": "64",
		"websocket_url": "ws://leds.local:8080/edges",
		"stats_interval": "30s"
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s := DefaultSettings()
	require.NoError(t, cfg.Apply(&s))

	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, "10.1.2.3", s.Host)
	assert.Equal(t, "eth1", s.Interface)
	assert.False(t, s.PushOnly)
	assert.Equal(t, uint64(1048576), s.ThresholdBytes)
	assert.Equal(t, 1500*time.Millisecond, s.InactivityTimeout)
	assert.Equal(t, uint64(64), s.MinPayloadBytes)
	assert.Equal(t, "ws://leds.local:8080/edges", s.WebsocketURL)
	assert.Equal(t, 30*time.Second, s.StatsInterval)
}

func TestApply_BadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{"bad threshold", `{"threshold": "lots"}`},
		{"bad min payload", `{"min_payload": "-1K"}`},
		{"bad timeout", `{"inactivity_timeout": "soon"}`},
		{"bad stats interval", `{"stats_interval": "x"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, "monitor.json", tt.json)
			cfg, err := Load(path)
			require.NoError(t, err)
			s := DefaultSettings()
			assert.Error(t, cfg.Apply(&s))
		})
	}
}

func TestApply_NilConfig(t *testing.T) {
	t.Parallel()

	var cfg *FileConfig
	s := DefaultSettings()
	assert.NoError(t, cfg.Apply(&s))
	assert.Equal(t, DefaultSettings(), s)
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want uint64
	}{
		{"1024", 1024},
		{"1KiB", 1024},
		{"1KB", 1000},
		{"2 MiB", 2097152},
		{"50B", 50},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseSize("many bytes")
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultSettings().Validate())

	bad := DefaultSettings()
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = DefaultSettings()
	bad.ThresholdBytes = 0
	assert.Error(t, bad.Validate())

	bad = DefaultSettings()
	bad.InactivityTimeout = 0
	assert.Error(t, bad.Validate())

	bad = DefaultSettings()
	bad.StatsInterval = -time.Second
	assert.Error(t, bad.Validate())
}
