package logger

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// captureStdout redirects os.Stdout while fn runs and returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	fn()

	_ = w.Close()
	buf := make([]byte, 8192)
	n, _ := r.Read(buf)
	return string(buf[:n])
}

func TestNewVariants(t *testing.T) {
	t.Run("json format logs expected fields", func(t *testing.T) {
		out := captureStdout(t, func() {
			logger := New(int(zerolog.InfoLevel), "json", false)
			logger.Info().Str("key", "value").Msg("json_test")
		})

		require.Contains(t, out, `"message":"json_test"`)
		require.Contains(t, out, `"key":"value"`)
	})

	t.Run("console format logs human readable output", func(t *testing.T) {
		out := captureStdout(t, func() {
			logger := New(int(zerolog.DebugLevel), "console", false)
			logger.Debug().Str("env", "test").Msg("console_log")
		})

		out = stripANSI(out)
		require.Contains(t, out, "console_log")
		require.Contains(t, out, "env=test")
	})

	t.Run("level filters lower events", func(t *testing.T) {
		out := captureStdout(t, func() {
			logger := New(int(zerolog.WarnLevel), "json", false)
			logger.Info().Msg("hidden")
			logger.Warn().Msg("shown")
		})

		require.NotContains(t, out, "hidden")
		require.Contains(t, out, "shown")
	})

	t.Run("sampler reduces output frequency", func(t *testing.T) {
		out := captureStdout(t, func() {
			logger := New(int(zerolog.InfoLevel), "json", true)
			for i := 0; i < 20; i++ {
				logger.Info().Int("count", i).Msg("sampled")
			}
		})

		count := strings.Count(out, "sampled")
		require.Greater(t, count, 0)
		require.Less(t, count, 20)
	})
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "workspaced.log")

	out := captureStdout(t, func() {
		logger, closer := NewWithFile(int(zerolog.InfoLevel), "json", false, FileConfig{
			Path:       path,
			MaxSizeMB:  1,
			MaxBackups: 1,
		})
		logger.Info().Str("component", "runner").Msg("to_both")
		require.NoError(t, closer.Close())
	})

	require.Contains(t, out, "to_both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"to_both"`)
	require.Contains(t, string(data), `"component":"runner"`)
}

// stripANSI removes ANSI escape sequences (used in console logs)
func stripANSI(input string) string {
	re := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return re.ReplaceAllString(input, "")
}
