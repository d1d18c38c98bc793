package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/osckit/pkg/types"
)

const treeTOML = `
name = "cli"

[arena]
size = 4096

[[nodes]]
address = "/foo/bar/int"
type = "int"
value = "42"
flags = "critical"

[[nodes]]
address = "/foo/bar/name"
type = "string"
capacity = 16
value = "hello"

[[nodes]]
address = "/go"
type = "impulse"
`

func TestTreeCommand(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		format      string
		attr        string
		depth       int
		wantErr     error
		wantContain []string
	}{
		{
			name:        "text tree",
			addr:        "/",
			format:      "text",
			wantContain: []string{"foo", "bar", "int", "42", "name", "hello", "go"},
		},
		{
			name:        "subtree",
			addr:        "/foo/bar/int",
			format:      "text",
			wantContain: []string{"42", "critical"},
		},
		{
			name:        "attribute",
			addr:        "/foo/bar/name",
			format:      "json",
			attr:        "VALUE",
			wantContain: []string{`"VALUE"`, `"hello"`},
		},
		{
			name:    "missing",
			addr:    "/nope",
			format:  "text",
			wantErr: types.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			treeConfig = writeConfig(t, ".toml", treeTOML)
			treeFormat = tt.format
			treeAttr = tt.attr
			treeDepth = tt.depth

			out, err := captureOutput(t, func() error { return runTree(tt.addr) })
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestTreeCommand_JSON(t *testing.T) {
	resetFlags(t)
	treeConfig = writeConfig(t, ".yaml", `
nodes:
  - address: /a/x
    type: float
    value: "0.25"
  - address: /a/y
    type: vec2
    value: "1,2"
`)
	jsonOut = true

	out, err := captureOutput(t, func() error { return runTree("/") })
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "/", doc["FULL_PATH"])
	contents := doc["CONTENTS"].(map[string]any)
	a := contents["a"].(map[string]any)
	assert.Equal(t, "/a", a["FULL_PATH"])
	y := a["CONTENTS"].(map[string]any)["y"].(map[string]any)
	assert.Equal(t, "ff", y["TYPE"])
	assert.Equal(t, []any{1.0, 2.0}, y["VALUE"])
}

func TestTreeCommand_BadConfig(t *testing.T) {
	resetFlags(t)
	treeConfig = writeConfig(t, ".toml", `
[[nodes]]
address = "/x"
type = "blob"
`)
	_, err := captureOutput(t, func() error { return runTree("/") })
	require.Error(t, err)
}
