package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String(), fnErr
}

// writeConfig writes body to a config file with the given extension.
func writeConfig(t *testing.T, ext, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osckit"+ext)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// resetFlags restores the package-level flag variables after a test.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		verbose, quiet, jsonOut, noColor = false, false, false, false
		encodeRaw, encodeDump, encodeOut = false, false, ""
		decodeFile = ""
		treeConfig, treeFormat, treeDepth, treeAttr, treeStats = "", "text", 0, "", false
	})
}
