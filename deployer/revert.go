package deployer

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

var ErrNoRevertReason = errors.New("no revert reason")

// Function selector for Error(string)
var errorReasonPrefix, _ = hexutil.Decode("0x08c379a0")

// getRevertReason replays a reverted contract creation as a call at the block
// it was mined in, decoding the Error(string) payload if there is one.
func getRevertReason(
	ctx context.Context,
	caller ethereum.ContractCaller,
	from common.Address,
	tx *types.Transaction,
	blockNum *big.Int,
) (reason string, err error) {
	callMsg := ethereum.CallMsg{
		From:     from,
		GasPrice: big.NewInt(0),
		Gas:      tx.Gas(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}

	result, err := caller.CallContract(ctx, callMsg, blockNum)
	if err != nil {
		var dataErr rpc.DataError
		if !errors.As(err, &dataErr) {
			err = errors.Wrap(err, "failed to get revert reason, call errored")
			return "", err
		}

		hexData, ok := dataErr.ErrorData().(string)
		if !ok {
			return "", ErrNoRevertReason
		}

		if result, err = hexutil.Decode(hexData); err != nil {
			return "", ErrNoRevertReason
		}
	}

	if len(result) == 0 {
		return "", ErrNoRevertReason
	} else if !bytes.HasPrefix(result, errorReasonPrefix) {
		return "", ErrNoRevertReason
	}

	reason, err = abi.UnpackRevert(result)
	if err != nil {
		err = errors.Wrap(err, "failed to unpack error reason")
		return "", err
	}

	return reason, nil
}
