package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, "kirshify_session", cfg.Security.CookieName)
	assert.Equal(t, 10, cfg.Client.PerPage)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.False(t, cfg.Client.UseMock)
	assert.Equal(t, "file", cfg.Client.MockStore)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KIRSHIFY_CLIENT_USEMOCK", "true")
	t.Setenv("KIRSHIFY_CLIENT_TIMEOUT", "3s")
	t.Setenv("KIRSHIFY_HTTP_PORT", "9090")
	t.Setenv("KIRSHIFY_ALLOWCORSORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.True(t, cfg.Client.UseMock)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowCORSOrigins)
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("KIRSHIFY_CLIENT_PERPAGE", "20")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("client-perpage", 10, "")
	fs.String("client-mockstore", "file", "")
	require.NoError(t, fs.Parse([]string{"--client-perpage=25"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Client.PerPage)
	assert.Equal(t, "file", cfg.Client.MockStore)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "zero per page", key: "KIRSHIFY_CLIENT_PERPAGE", val: "0"},
		{name: "per page above server cap", key: "KIRSHIFY_CLIENT_PERPAGE", val: "150"},
		{name: "negative timeout", key: "KIRSHIFY_CLIENT_TIMEOUT", val: "-1s"},
		{name: "unknown mock store", key: "KIRSHIFY_CLIENT_MOCKSTORE", val: "indexeddb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}
