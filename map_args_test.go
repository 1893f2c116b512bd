package main

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapArgsABI = `[{"type":"constructor","inputs":[
	{"name":"beneficiary","type":"address"},
	{"name":"goal","type":"uint256"},
	{"name":"decimals","type":"uint8"},
	{"name":"offset","type":"int64"},
	{"name":"open","type":"bool"},
	{"name":"title","type":"string"},
	{"name":"salt","type":"bytes32"},
	{"name":"memo","type":"bytes"}
]}]`

func constructorInputs(t *testing.T, abiJSON string) abi.Arguments {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)

	return parsed.Constructor.Inputs
}

func TestMapStringArgs(t *testing.T) {
	assert := assert.New(t)

	inputs := constructorInputs(t, mapArgsABI)
	args, err := mapStringArgs(inputs, []string{
		"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
		"1000000000000000000000",
		"18",
		"-5",
		"true",
		"Fund",
		"0x01",
		"0xdeadbeef",
	})
	require.NoError(t, err)

	goal, _ := new(big.Int).SetString("1000000000000000000000", 10)
	assert.Equal(common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"), args[0])
	assert.Equal(goal, args[1])
	assert.Equal(uint8(18), args[2])
	assert.Equal(int64(-5), args[3])
	assert.Equal(true, args[4])
	assert.Equal("Fund", args[5])
	assert.Equal([32]byte{0x01}, args[6])
	assert.Equal([]byte{0xde, 0xad, 0xbe, 0xef}, args[7])

	// the result must be accepted by the ABI packer
	_, err = inputs.Pack(args...)
	assert.NoError(err)
}

func TestMapStringArgsErrors(t *testing.T) {
	assert := assert.New(t)

	inputs := constructorInputs(t, `[{"type":"constructor","inputs":[{"name":"beneficiary","type":"address"}]}]`)

	_, err := mapStringArgs(inputs, nil)
	assert.Error(err)

	_, err = mapStringArgs(inputs, []string{"a", "b"})
	assert.Error(err)

	_, err = mapStringArgs(inputs, []string{"not-an-address"})
	assert.Error(err)

	uints := constructorInputs(t, `[{"type":"constructor","inputs":[{"name":"n","type":"uint8"}]}]`)
	_, err = mapStringArgs(uints, []string{"256"})
	assert.Error(err)

	bools := constructorInputs(t, `[{"type":"constructor","inputs":[{"name":"b","type":"bool"}]}]`)
	_, err = mapStringArgs(bools, []string{"maybe"})
	assert.Error(err)

	args, err := mapStringArgs(abi.Arguments{}, nil)
	assert.NoError(err)
	assert.Nil(args)
}
