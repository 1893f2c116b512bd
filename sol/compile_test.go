package sol

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeSolc creates a shell script standing in for solc. It records its
// working dir, argv and stdin into dir and prints output.
func writeFakeSolc(t *testing.T, dir, output string, exitCode int) string {
	if runtime.GOOS == "windows" {
		t.Skip("fake solc needs a POSIX shell")
	}

	outputPath := filepath.Join(dir, "output.json")
	require.NoError(t, os.WriteFile(outputPath, []byte(output), 0644))

	script := fmt.Sprintf(`#!/bin/sh
pwd > '%[1]s/cwd'
printf '%%s\n' "$@" > '%[1]s/argv'
cat > '%[1]s/stdin'
if [ %[2]d -ne 0 ]; then
	echo "Error: source file requires different compiler version" >&2
	exit %[2]d
fi
cat '%[1]s/output.json'
`, dir, exitCode)

	scriptPath := filepath.Join(dir, "solc")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0755))

	return scriptPath
}

func writeFundSource(t *testing.T) string {
	prefix := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "contracts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(prefix, "contracts", "Fund.sol"), []byte(fundSource), 0644))

	return prefix
}

func readRecorded(t *testing.T, dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	return string(data)
}

func TestCompileRunsSolc(t *testing.T) {
	assert := assert.New(t)

	recordDir := t.TempDir()
	prefix := writeFundSource(t)

	s := &solCompiler{
		solcPath: writeFakeSolc(t, recordDir, fundOutput, 0),
		version:  "0.8.19+commit.7dd6d404",
	}
	s.SetAllowPaths([]string{"/lib", "/node_modules"})
	s.SetEVMVersion(EVMVersionLondon)

	contracts, err := s.Compile(prefix, "contracts/Fund.sol", 200)
	require.NoError(t, err)

	fund, err := LookupContract(contracts, "Fund")
	require.NoError(t, err)
	assert.Equal("0.8.19+commit.7dd6d404", fund.CompilerVersion)
	assert.Equal("6080604052348015600f57600080fd5b50", fund.Bin)

	// solc runs inside the source prefix
	wantDir, err := filepath.EvalSymlinks(prefix)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(strings.TrimSpace(readRecorded(t, recordDir, "cwd")))
	require.NoError(t, err)
	assert.Equal(wantDir, gotDir)

	argv := strings.Split(strings.TrimSpace(readRecorded(t, recordDir, "argv")), "\n")
	assert.Equal([]string{"--allow-paths", "/lib,/node_modules", "--standard-json"}, argv)

	var input StandardJSONInput
	require.NoError(t, json.Unmarshal([]byte(readRecorded(t, recordDir, "stdin")), &input))
	assert.Equal("Solidity", input.Language)
	assert.True(input.Settings.Optimizer.Enabled)
	assert.Equal(200, input.Settings.Optimizer.Runs)
	assert.Equal(EVMVersionLondon, input.Settings.EvmVersion)
	assert.Equal([]string{"abi", "evm.bytecode.object"}, input.Settings.OutputSelection["*"]["*"])
	if assert.Contains(input.Sources, "contracts/Fund.sol") {
		assert.Equal(fundSource, input.Sources["contracts/Fund.sol"].Content)
	}
}

func TestCompileWithoutAllowPaths(t *testing.T) {
	recordDir := t.TempDir()
	prefix := writeFundSource(t)

	s := &solCompiler{solcPath: writeFakeSolc(t, recordDir, fundOutput, 0)}

	_, err := s.Compile(prefix, "contracts/Fund.sol", 0)
	require.NoError(t, err)

	argv := strings.Split(strings.TrimSpace(readRecorded(t, recordDir, "argv")), "\n")
	assert.Equal(t, []string{"--standard-json"}, argv)

	var input StandardJSONInput
	require.NoError(t, json.Unmarshal([]byte(readRecorded(t, recordDir, "stdin")), &input))
	assert.False(t, input.Settings.Optimizer.Enabled)
	assert.Empty(t, input.Settings.EvmVersion)
}

func TestCompileSolcFailure(t *testing.T) {
	assert := assert.New(t)

	recordDir := t.TempDir()
	prefix := writeFundSource(t)

	s := &solCompiler{solcPath: writeFakeSolc(t, recordDir, "", 1)}

	contracts, err := s.Compile(prefix, "contracts/Fund.sol", 1)
	require.Error(t, err)
	assert.Nil(contracts)
	assert.Contains(err.Error(), "failed to compile contract")
	assert.Contains(err.Error(), "source file requires different compiler version")
	assert.False(errors.Is(err, ErrSourceUnreadable))
}
