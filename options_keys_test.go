package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/InjectiveLabs/contract-deployer/wallet"
)

func TestValidateHDRange(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(validateHDRange(0, 1))
	assert.NoError(validateHDRange(wallet.MaxHDIndex-3, 3))

	assert.Error(validateHDRange(-1, 1))
	assert.Error(validateHDRange(0, 0))
	assert.Error(validateHDRange(wallet.MaxHDIndex-3, 4))
	assert.Error(validateHDRange(math.MaxInt32, 1))
}
