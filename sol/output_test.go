package sol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fundOutput = `{
	"contracts": {
		"contracts/Fund.sol": {
			"Fund": {
				"abi": [
					{"inputs": [{"internalType": "address payable", "name": "_beneficiary", "type": "address"}], "stateMutability": "nonpayable", "type": "constructor"},
					{"inputs": [], "name": "contribute", "outputs": [], "stateMutability": "payable", "type": "function"},
					{"inputs": [], "name": "manager", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
				],
				"evm": {"bytecode": {"object": "6080604052348015600f57600080fd5b50"}}
			}
		},
		"contracts/Ownable.sol": {
			"Ownable": {
				"abi": [],
				"evm": {"bytecode": {"object": ""}}
			}
		}
	},
	"errors": [
		{
			"component": "general",
			"formattedMessage": "Warning: SPDX license identifier not provided in source file.\n",
			"message": "SPDX license identifier not provided in source file.",
			"severity": "warning",
			"type": "Warning"
		}
	],
	"sources": {
		"contracts/Fund.sol": {"id": 0},
		"contracts/Ownable.sol": {"id": 1}
	}
}`

const brokenOutput = `{
	"errors": [
		{
			"component": "general",
			"formattedMessage": "ParserError: Expected primary expression.\n --> contracts/Fund.sol:5:21:\n",
			"message": "Expected primary expression.",
			"severity": "error",
			"type": "ParserError"
		},
		{
			"component": "general",
			"formattedMessage": "DeclarationError: Undeclared identifier.\n --> contracts/Fund.sol:9:9:\n",
			"message": "Undeclared identifier.",
			"severity": "error",
			"type": "DeclarationError"
		},
		{
			"component": "general",
			"message": "Unused local variable.",
			"severity": "warning",
			"type": "Warning"
		}
	],
	"sources": {}
}`

func TestParseStandardJSONOutput(t *testing.T) {
	assert := assert.New(t)

	contracts, err := parseStandardJSONOutput([]byte(fundOutput), "/src", "contracts/Fund.sol", "0.8.19+commit.7dd6d404")
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	fund, err := LookupContract(contracts, "Fund")
	require.NoError(t, err)

	assert.Equal("Fund", fund.Name)
	assert.Equal("contracts/Fund.sol", fund.SourcePath)
	assert.Equal("0.8.19+commit.7dd6d404", fund.CompilerVersion)
	assert.Equal("6080604052348015600f57600080fd5b50", fund.Bin)
	assert.Equal([]string{"/src/contracts/Fund.sol", "/src/contracts/Ownable.sol"}, fund.AllPaths)

	parsedABI, err := abi.JSON(strings.NewReader(string(fund.ABI)))
	require.NoError(t, err)
	assert.Len(parsedABI.Constructor.Inputs, 1)
	assert.Contains(parsedABI.Methods, "contribute")
	assert.Contains(parsedABI.Methods, "manager")

	ownable := contracts["Ownable"]
	if assert.NotNil(ownable) {
		assert.Empty(ownable.Bin)
		assert.JSONEq(`[]`, string(ownable.ABI))
	}
}

func TestParseStandardJSONOutputDiagnostics(t *testing.T) {
	assert := assert.New(t)

	contracts, err := parseStandardJSONOutput([]byte(brokenOutput), "", "contracts/Fund.sol", "")
	assert.Nil(contracts)
	assert.True(errors.Is(err, ErrCompilation))

	var compilationErr *CompilationError
	require.True(t, errors.As(err, &compilationErr))
	assert.Equal("contracts/Fund.sol", compilationErr.Source)
	require.Len(t, compilationErr.Diagnostics, 2)
	assert.Equal("ParserError", compilationErr.Diagnostics[0].Type)
	assert.Equal("DeclarationError", compilationErr.Diagnostics[1].Type)

	msg := err.Error()
	assert.Contains(msg, "ParserError: Expected primary expression.\n --> contracts/Fund.sol:5:21:")
	assert.Contains(msg, "DeclarationError: Undeclared identifier.\n --> contracts/Fund.sol:9:9:")
	assert.NotContains(msg, "Unused local variable")
}

func TestParseStandardJSONOutputEmpty(t *testing.T) {
	contracts, err := parseStandardJSONOutput([]byte(`{"sources": {}}`), "", "Empty.sol", "")
	require.NoError(t, err)
	assert.Empty(t, contracts)

	_, err = LookupContract(contracts, "Fund")
	assert.True(t, errors.Is(err, ErrContractNotFound))
	assert.Contains(t, err.Error(), "Fund")
}

func TestParseStandardJSONOutputMalformed(t *testing.T) {
	_, err := parseStandardJSONOutput([]byte(`solc crashed`), "", "Fund.sol", "")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrCompilation))
}

func TestCollectStandardJSON(t *testing.T) {
	assert := assert.New(t)

	prepare(fundSource)
	defer cleanup()

	out, err := CollectStandardJSON([]string{"test.sol"}, 200, EVMVersionIstanbul)
	require.NoError(t, err)

	var input StandardJSONInput
	require.NoError(t, json.Unmarshal(out, &input))
	assert.Equal("Solidity", input.Language)
	assert.True(input.Settings.Optimizer.Enabled)
	assert.Equal(200, input.Settings.Optimizer.Runs)
	assert.Equal(EVMVersionIstanbul, input.Settings.EvmVersion)
	if assert.Contains(input.Sources, "test.sol") {
		assert.Equal(fundSource, input.Sources["test.sol"].Content)
		assert.True(strings.HasPrefix(input.Sources["test.sol"].Keccak256, "0x"))
	}

	_, err = CollectStandardJSON([]string{"missing.sol"}, 0, EVMVersionDefault)
	assert.True(errors.Is(err, ErrSourceUnreadable))
}
