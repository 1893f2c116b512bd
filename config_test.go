package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProfile = `
source = "contracts/Fund.sol"
name = "Fund"
endpoint = "http://localhost:9545"
gas_limit = 2000000
optimize_runs = 200
records = "build/deployments.json"
args = ["0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"]

[wallet]
hd_index = 2
hd_count = 3
`

func writeProfile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "deployer.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	return path
}

func TestLoadConfigFile(t *testing.T) {
	assert := assert.New(t)

	cfg, err := loadConfigFile(writeProfile(t, testProfile))
	require.NoError(t, err)

	assert.Equal("http://localhost:9545", cfg.Endpoint)
	require.NotNil(t, cfg.GasLimit)
	assert.Equal(2000000, *cfg.GasLimit)
	require.NotNil(t, cfg.Wallet.HDCount)
	assert.Equal(3, *cfg.Wallet.HDCount)
	assert.Nil(cfg.Retries)
	assert.Equal([]string{"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"}, cfg.Args)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = loadConfigFile(writeProfile(t, `gas_limit = "lots"`))
	assert.Error(t, err)

	_, err = loadConfigFile(writeProfile(t, `gas_limt = 1`))
	assert.Error(t, err)
}

func TestApplyFileConfig(t *testing.T) {
	assert := assert.New(t)

	prevEndpoint, prevEndpointSet := *evmEndpoint, evmEndpointSet
	prevGasLimit, prevRuns := *gasLimit, *optimizeRuns
	prevRecords, prevIndex, prevCount := *recordsFile, *hdIndex, *hdCount
	defer func() {
		*evmEndpoint, evmEndpointSet = prevEndpoint, prevEndpointSet
		*gasLimit, *optimizeRuns = prevGasLimit, prevRuns
		*recordsFile, *hdIndex, *hdCount = prevRecords, prevIndex, prevCount
		configArgs = nil
	}()

	*evmEndpoint = "http://node:8545"
	evmEndpointSet = true

	cfg, err := loadConfigFile(writeProfile(t, testProfile))
	require.NoError(t, err)
	applyFileConfig(cfg)

	// set by flag or env, the profile does not override it
	assert.Equal("http://node:8545", *evmEndpoint)

	assert.Equal(2000000, *gasLimit)
	assert.Equal(200, *optimizeRuns)
	assert.Equal("build/deployments.json", *recordsFile)
	assert.Equal(2, *hdIndex)
	assert.Equal(3, *hdCount)
	assert.Equal([]string{"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"}, configArgs)

	assert.NoError(validateOptions())
}

func TestValidateOptions(t *testing.T) {
	prevGasLimit, prevPrice, prevVersion := *gasLimit, *gasPrice, *evmVersion
	defer func() {
		*gasLimit, *gasPrice, *evmVersion = prevGasLimit, prevPrice, prevVersion
	}()

	*gasLimit = 100
	*gasPrice = "-1"
	*evmVersion = "frontier"

	err := validateOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gas limit 100 is below 21000")
	assert.Contains(t, err.Error(), "invalid gas price: -1")
	assert.Contains(t, err.Error(), "unsupported EVM version: frontier")
}
