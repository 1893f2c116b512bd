package deployer

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	log "github.com/xlab/suplog"
)

var (
	ErrAwaitTimeout        = errors.New("await timeout")
	ErrTransactionReverted = errors.New("transaction reverted")
)

var awaitPollInterval = time.Second

// sendContractCreation builds, signs and sends a contract creation tx. Gas limit is
// never estimated, the caller provides the ceiling.
func sendContractCreation(backend Backend, opts *bind.TransactOpts, input []byte) (*types.Transaction, error) {
	var err error

	// Ensure a valid value field and resolve the account nonce
	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	var nonce uint64
	if opts.Nonce == nil {
		nonce, err = backend.PendingNonceAt(opts.Context, opts.From)
		if err != nil {
			err = errors.Wrap(err, "failed to retrieve account nonce")
			return nil, err
		}
	} else {
		nonce = opts.Nonce.Uint64()
	}
	// Figure out the gas price value
	gasPrice := opts.GasPrice
	if gasPrice == nil {
		gasPrice, err = backend.SuggestGasPrice(opts.Context)
		if err != nil {
			err = errors.Wrap(err, "failed to suggest gas price")
			return nil, err
		}
	}
	if opts.GasLimit == 0 {
		return nil, errors.New("gas limit not specified")
	}
	// Create the transaction, sign it and schedule it for execution
	rawTx := types.NewContractCreation(nonce, value, opts.GasLimit, gasPrice, input)
	if opts.Signer == nil {
		return nil, errors.New("no signer to authorize the transaction with")
	}
	signedTx, err := opts.Signer(opts.From, rawTx)
	if err != nil {
		return nil, err
	}

	if sender, ok := backend.(rawTxSender); ok {
		txHash, err := sender.SendTransactionWithRet(opts.Context, signedTx)
		if err != nil {
			return nil, err
		} else if txHash != signedTx.Hash() {
			log.WithFields(log.Fields{
				"local":  signedTx.Hash().Hex(),
				"remote": txHash.Hex(),
			}).Warningln("node reported a different transaction hash")
		}

		return signedTx, nil
	}

	if err := backend.SendTransaction(opts.Context, signedTx); err != nil {
		return nil, err
	}

	return signedTx, nil
}

func awaitTx(ctx context.Context, backend Backend, txHash common.Hash) (*types.Receipt, error) {
	awaitLog := log.WithField("hash", txHash.Hex())
	awaitLog.Debugln("awaiting transaction")

	for {
		receipt, err := backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case ctx.Err() != nil:
			return nil, errors.Wrap(ErrAwaitTimeout, ctx.Err().Error())
		case err != nil && err != ethereum.NotFound:
			awaitLog.WithError(err).Errorln("failed to await transaction")
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ErrAwaitTimeout, ctx.Err().Error())
		case <-time.After(awaitPollInterval):
		}
	}
}
