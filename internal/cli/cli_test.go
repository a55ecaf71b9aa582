package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/deskshell/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		wantExit bool
		wantCode int
		wantMsg  string
	}{
		{
			name: "defaults",
			args: nil,
			want: &app.Config{Listen: DefaultListen, LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "all flags",
			args: []string{"--listen", "localhost:9000", "--log-format", "JSON", "--log-level", "Debug"},
			want: &app.Config{Listen: "localhost:9000", LogFormat: "json", LogLevel: "debug"},
		},
		{
			name:     "help",
			args:     []string{"-h"},
			wantExit: true,
		},
		{
			name:     "unknown flag",
			args:     []string{"--grid", "x"},
			wantCode: 2,
			wantMsg:  "flag provided but not defined",
		},
		{
			name:     "positional argument",
			args:     []string{"app.hcl"},
			wantCode: 2,
			wantMsg:  "unexpected argument: app.hcl",
		},
		{
			name:     "bad log format",
			args:     []string{"--log-format", "xml"},
			wantCode: 2,
			wantMsg:  "invalid log-format",
		},
		{
			name:     "bad log level",
			args:     []string{"--log-level", "trace"},
			wantCode: 2,
			wantMsg:  "invalid log-level",
		},
		{
			name:     "bad listen address",
			args:     []string{"--listen", "1430"},
			wantCode: 2,
			wantMsg:  "invalid listen address",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			cfg, exit, err := Parse(tc.args, out)

			// --- Assert ---
			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}

func TestParse_EnvironmentDefaults(t *testing.T) {
	t.Setenv("DESKSHELL_LISTEN", "127.0.0.1:5555")
	t.Setenv("DESKSHELL_LOG_LEVEL", "warn")

	cfg, _, err := Parse(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5555", cfg.Listen)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	cfg, _, err = Parse([]string{"--log-level", "error"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "flags win over the environment")
}
