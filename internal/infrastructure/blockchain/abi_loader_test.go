package blockchain

import (
	"os"
	"path/filepath"
	"testing"

	"abi-decoder/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseABI(t *testing.T) {
	items, err := ParseABI([]byte(erc20ABI))
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "transfer", items[0].Name)
	assert.True(t, items[3].IsEvent())
	assert.True(t, items[3].Inputs[0].Indexed)
}

func TestParseABI_Artifact(t *testing.T) {
	items, err := ParseABI([]byte(`{"contractName":"Token","abi":` + erc20ABI + `,"bytecode":"0x"}`))
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestParseABI_Errors(t *testing.T) {
	for _, raw := range []string{"", "   ", `"abi"`, `true`, `null`, `1`, `{}`, `{"abi":{}}`} {
		_, err := ParseABI([]byte(raw))
		assert.ErrorIs(t, err, service.ErrInvalidInput, "raw %q", raw)
	}

	_, err := ParseABI([]byte(`[{"type":`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidInput)
}

func TestLoadABIFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_token.json", `{"abi":[{"type":"event","name":"Approval","inputs":[]}]}`)
	writeFile(t, dir, "a_router.json", `[{"type":"function","name":"swap","inputs":[]}]`)
	writeFile(t, dir, "notes.txt", `not an abi`)

	extra := writeFile(t, t.TempDir(), "extra.json", `[{"type":"function","name":"ping","inputs":[]}]`)

	items, err := LoadABIFiles([]string{extra}, []string{dir})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "ping", items[0].Name)
	assert.Equal(t, "swap", items[1].Name)
	assert.Equal(t, "Approval", items[2].Name)
}

func TestLoadABIFiles_MissingDirectoryIsEmpty(t *testing.T) {
	items, err := LoadABIFiles(nil, []string{filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadABIFiles_Errors(t *testing.T) {
	_, err := LoadABIFiles([]string{filepath.Join(t.TempDir(), "missing.json")}, nil)
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"name":"oops"}`)
	_, err = LoadABIFiles(nil, []string{dir})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
