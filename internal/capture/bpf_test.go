package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterConfig_BPF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  FilterConfig
		want string
	}{
		{
			name: "port only",
			cfg:  FilterConfig{Port: 4000},
			want: "tcp port 4000",
		},
		{
			name: "push only",
			cfg:  FilterConfig{Port: 4000, PushOnly: true},
			want: "tcp port 4000 and tcp[13] & 0x08 != 0",
		},
		{
			name: "host restriction",
			cfg:  FilterConfig{Port: 443, Host: "192.168.1.20"},
			want: "tcp port 443 and host 192.168.1.20",
		},
		{
			name: "all clauses",
			cfg:  FilterConfig{Port: 8080, Host: "10.0.0.5", PushOnly: true},
			want: "tcp port 8080 and tcp[13] & 0x08 != 0 and host 10.0.0.5",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.BPF())
		})
	}
}

func TestFilterConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, FilterConfig{Port: 1}.Validate())
	assert.NoError(t, FilterConfig{Port: 65535}.Validate())
	assert.Error(t, FilterConfig{Port: 0}.Validate())
	assert.Error(t, FilterConfig{Port: -1}.Validate())
	assert.Error(t, FilterConfig{Port: 70000}.Validate())
}

func TestConfig_SessionTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "capture", Config{}.sessionTag())
	assert.Equal(t, "capture[abc123]", Config{SessionID: "abc123"}.sessionTag())
}
