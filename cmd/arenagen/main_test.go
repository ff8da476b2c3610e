package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjweiting/hackthon001/internal/arena"
)

func TestRun_GenerateAndInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-seed", "42", "-out", path}, &out))
	assert.Contains(t, out.String(), "seed 42")

	doc, err := arena.LoadMapConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), doc.Seed)
	assert.Len(t, doc.WeaponSpawns, 10)

	out.Reset()
	require.NoError(t, run([]string{"-inspect", path}, &out))
	assert.Contains(t, out.String(), "seed:         42")
	assert.Contains(t, out.String(), "matches seed: true")
}

func TestRun_PrintsJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-seed", "7"}, &out))

	var doc arena.MapConfig
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, int64(7), doc.Seed)
	assert.True(t, generate(7, arena.DefaultOptions()).Equal(&doc))
}

func TestRun_InspectMissingFile(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"-inspect", filepath.Join(t.TempDir(), "nope.json")}, &out))
}
