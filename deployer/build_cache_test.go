package deployer

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InjectiveLabs/contract-deployer/sol"
)

func TestBuildCache(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	source := filepath.Join(dir, "Fund.sol")
	orPanic(ioutil.WriteFile(source, []byte("contract Fund {}"), 0644))

	cache, err := NewBuildCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	settings := BuildSettings{
		CompilerVersion: "0.8.19+commit.7dd6d404",
		OptimizeRuns:    1,
	}

	_, err = cache.LoadContract(source, "Fund", settings)
	assert.Equal(ErrNoCache, err)

	contract := fundContract()
	contract.AllPaths = []string{source}
	require.NoError(t, cache.StoreContract(source, settings, contract))

	loaded, err := cache.LoadContract(source, "Fund", settings)
	require.NoError(t, err)
	assert.Equal("Fund", loaded.Name)
	assert.Equal(source, loaded.SourcePath)
	assert.Equal([]string{source}, loaded.AllPaths)
	assert.Equal(fundInitCode, loaded.Bin)
	assert.JSONEq(fundABI, string(loaded.ABI))

	london := settings
	london.EVMVersion = sol.EVMVersionLondon
	_, err = cache.LoadContract(source, "Fund", london)
	assert.Equal(ErrNoCache, err)

	// editing the source invalidates the entry
	orPanic(ioutil.WriteFile(source, []byte("contract Fund { uint x; }"), 0644))
	_, err = cache.LoadContract(source, "Fund", settings)
	assert.Equal(ErrNoCache, err)
}

func TestBuildCacheCorruptedEntry(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "Fund.sol")
	orPanic(ioutil.WriteFile(source, []byte("contract Fund {}"), 0644))

	cacheDir := filepath.Join(dir, "cache")
	cache, err := NewBuildCache(cacheDir)
	require.NoError(t, err)

	settings := BuildSettings{CompilerVersion: "0.8.19"}
	hash, err := buildHash(source, settings)
	require.NoError(t, err)
	orPanic(ioutil.WriteFile(filepath.Join(cacheDir, entryFileName("Fund", hash)), []byte("{"), 0644))

	_, err = cache.LoadContract(source, "Fund", settings)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCache))
}
