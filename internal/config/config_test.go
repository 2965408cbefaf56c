package config

import (
	"testing"
	"time"

	"churndash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "DATA_FILE", "HISTOGRAM_BINS", "DASHBOARD_USERS", "SESSION_IDLE_TIMEOUT", "PPROF_ENABLED", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultDataFile, cfg.Data.File)
	assert.Equal(t, 20, cfg.Data.HistogramBins)
	assert.Equal(t, 30*time.Minute, cfg.Auth.IdleTimeout)
	assert.Empty(t, cfg.Auth.Users)
	assert.False(t, cfg.Profiling.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_FILE", "/tmp/churn.xlsx")
	t.Setenv("HISTOGRAM_BINS", "12")
	t.Setenv("DASHBOARD_USERS", "ana:pw:Ana Mensah")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/tmp/churn.xlsx", cfg.Data.File)
	assert.Equal(t, 12, cfg.Data.HistogramBins)
	assert.Equal(t, 5*time.Minute, cfg.Auth.IdleTimeout)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "Ana Mensah", cfg.Auth.Users[0].DisplayName)
}

func TestLoadRejectsBadBins(t *testing.T) {
	t.Setenv("HISTOGRAM_BINS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadRejectsUnknownGinMode(t *testing.T) {
	t.Setenv("GIN_MODE", "verbose")

	_, err := Load()
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))
}

func TestParseUsers(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      []UserCredential
		expectErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{
			name: "display name defaults to username",
			raw:  "kofi:secret",
			want: []UserCredential{{Username: "kofi", Password: "secret", DisplayName: "kofi"}},
		},
		{
			name: "several entries",
			raw:  "kofi:secret:Kofi A; ama:pw:Ama B ;",
			want: []UserCredential{
				{Username: "kofi", Password: "secret", DisplayName: "Kofi A"},
				{Username: "ama", Password: "pw", DisplayName: "Ama B"},
			},
		},
		{name: "missing password", raw: "kofi", expectErr: true},
		{name: "blank password", raw: "kofi::Kofi", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUsers(tt.raw)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
