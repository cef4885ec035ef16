package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recursive_protocol_reviewer/auditlog"
)

func newTestDiagnostics(t *testing.T) *Diagnostics {
	t.Helper()
	return NewDiagnostics(auditlog.New(t.TempDir()))
}

func warningMessages(d *Diagnostics) []string {
	var out []string
	for _, ev := range d.Warnings() {
		out = append(out, ev.Message)
	}
	return out
}

func TestInspectEnvFileWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"# comment line",
		"OPENAI_API_KEY=sk-short",
		"continuation-without-equals",
		"OTHER_VAR=fine",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d := newTestDiagnostics(t)
	d.inspectEnvFile(path)

	msgs := strings.Join(warningMessages(d), "\n")
	assert.Contains(t, msgs, "looks shorter than expected")
	assert.Contains(t, msgs, "split across multiple lines")
	assert.Contains(t, msgs, "has no '='")
}

func TestInspectEnvFileEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=\n"), 0o600))

	d := newTestDiagnostics(t)
	d.inspectEnvFile(path)

	assert.Contains(t, strings.Join(warningMessages(d), "\n"), "defined but empty")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "TRP_TEST_NEW=fresh\nTRP_TEST_EXISTING=overridden\n# comment\nnot-a-pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TRP_TEST_EXISTING", "original")
	os.Unsetenv("TRP_TEST_NEW")
	t.Cleanup(func() { os.Unsetenv("TRP_TEST_NEW") })

	loaded, err := loadDotEnv(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "fresh", os.Getenv("TRP_TEST_NEW"))
	assert.Equal(t, "original", os.Getenv("TRP_TEST_EXISTING"), "existing environment wins")
}

func TestCheckAPIKeyShapes(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		d := newTestDiagnostics(t)
		d.checkAPIKey("")
		assert.Contains(t, strings.Join(warningMessages(d), "\n"), "is not set")
	})

	t.Run("wrong prefix and short", func(t *testing.T) {
		d := newTestDiagnostics(t)
		d.checkAPIKey("abc123")
		msgs := strings.Join(warningMessages(d), "\n")
		assert.Contains(t, msgs, "does not start with 'sk-'")
		assert.Contains(t, msgs, "shorter than expected")
	})

	t.Run("plausible key", func(t *testing.T) {
		d := newTestDiagnostics(t)
		d.checkAPIKey("sk-" + strings.Repeat("a", 60))
		assert.Empty(t, d.Warnings())
	})
}

func TestRecordNormalizesLevel(t *testing.T) {
	d := newTestDiagnostics(t)
	d.Record("INFO", "plain info")
	d.Record("Warning", "heads up")
	d.Record("bogus", "treated as info")

	warnings := d.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Equal(t, "heads up", warnings[0].Message)
}
