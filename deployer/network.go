package deployer

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/sol"
	"github.com/InjectiveLabs/contract-deployer/wallet"
)

// Network is the remote side of a deployment: the wallet that owns the signing
// accounts and the chain the contract is created on.
type Network interface {
	ListAccounts(ctx context.Context) ([]common.Address, error)

	// DeployContract submits a contract creation and blocks until it is included.
	DeployContract(ctx context.Context, req DeployRequest) (*DeploymentResult, error)
}

type DeployRequest struct {
	Contract        *sol.Contract
	ConstructorArgs []interface{}
	GasLimit        uint64
	From            common.Address

	// OnSubmit is called once the node accepted the transaction, before confirmation.
	OnSubmit func(txHash common.Hash)
}

type DeploymentResult struct {
	ContractName    string
	ContractAddress common.Address
	TxHash          common.Hash
	From            common.Address
	ChainID         *big.Int
	BlockNumber     *big.Int
	GasUsed         uint64
}

type evmNetwork struct {
	backend  Backend
	wallet   wallet.Provider
	gasPrice *big.Int

	chainIDMux sync.Mutex
	chainID    *big.Int
}

// NewNetwork deploys through the given node backend, signing with accounts of the wallet.
// A nil gasPrice means the node suggestion is used for every tx.
func NewNetwork(backend Backend, provider wallet.Provider, gasPrice *big.Int) Network {
	return &evmNetwork{
		backend:  backend,
		wallet:   provider,
		gasPrice: gasPrice,
	}
}

// ListAccounts checks the endpoint is reachable by resolving the chain ID, then
// lists the wallet accounts.
func (n *evmNetwork) ListAccounts(ctx context.Context) ([]common.Address, error) {
	if _, err := n.getChainID(ctx); err != nil {
		return nil, err
	}

	accounts, err := n.wallet.Accounts(ctx)
	if err != nil {
		return nil, classifyError(err, ErrNoAccount)
	}

	return accounts, nil
}

func (n *evmNetwork) DeployContract(ctx context.Context, req DeployRequest) (*DeploymentResult, error) {
	if req.Contract == nil {
		return nil, newError(ErrSubmission, errors.New("no contract provided"))
	}

	input, err := creationInput(req.Contract, req.ConstructorArgs)
	if err != nil {
		return nil, newError(ErrSubmission, err)
	}

	chainID, err := n.getChainID(ctx)
	if err != nil {
		return nil, err
	}

	signerFn, err := n.wallet.SignerFn(chainID, req.From)
	if err != nil {
		if errors.Is(err, wallet.ErrUnknownAccount) {
			return nil, newError(ErrNoAccount, err)
		}

		return nil, newError(ErrUnexpected, err)
	}

	txOpts := &bind.TransactOpts{
		From:     req.From,
		Signer:   signerFn,
		Value:    big.NewInt(0),
		GasPrice: n.gasPrice,
		GasLimit: req.GasLimit,

		Context: ctx,
	}

	txLog := log.WithFields(log.Fields{
		"contract": req.Contract.Name,
		"from":     req.From.Hex(),
		"gasLimit": req.GasLimit,
	})

	tx, err := sendContractCreation(n.backend, txOpts, input)
	if err != nil {
		txLog.WithError(err).Errorln("failed to submit contract creation")
		return nil, classifyError(err, ErrSubmission)
	}

	txLog.WithField("txHash", tx.Hash().Hex()).Debugln("contract creation submitted")
	if req.OnSubmit != nil {
		req.OnSubmit(tx.Hash())
	}

	receipt, err := awaitTx(ctx, n.backend, tx.Hash())
	if err != nil {
		return nil, classifyError(err, ErrUnexpected)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		err := errors.Wrapf(ErrTransactionReverted, "tx %s used %d of %d gas", tx.Hash().Hex(), receipt.GasUsed, tx.Gas())
		if receipt.GasUsed >= tx.Gas() {
			return nil, newError(ErrOutOfGas, err)
		}

		if caller, ok := n.backend.(ethereum.ContractCaller); ok {
			reason, reasonErr := getRevertReason(ctx, caller, req.From, tx, receipt.BlockNumber)
			if reasonErr == nil {
				err = errors.Wrapf(err, "reverted with %q", reason)
			} else if !errors.Is(reasonErr, ErrNoRevertReason) {
				txLog.WithError(reasonErr).Debugln("unable to get revert reason")
			}
		}

		return nil, newError(ErrSubmission, err)
	} else if receipt.ContractAddress == (common.Address{}) {
		err := errors.Errorf("receipt of tx %s carries no contract address", tx.Hash().Hex())
		return nil, newError(ErrUnexpected, err)
	}

	result := &DeploymentResult{
		ContractName:    req.Contract.Name,
		ContractAddress: receipt.ContractAddress,
		TxHash:          tx.Hash(),
		From:            req.From,
		ChainID:         chainID,
		BlockNumber:     receipt.BlockNumber,
		GasUsed:         receipt.GasUsed,
	}

	return result, nil
}

// getChainID asks the node once, later calls reuse the answer.
func (n *evmNetwork) getChainID(ctx context.Context) (*big.Int, error) {
	n.chainIDMux.Lock()
	defer n.chainIDMux.Unlock()

	if n.chainID != nil {
		return n.chainID, nil
	}

	chainID, err := n.backend.ChainID(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to get chain ID")
		return nil, classifyError(err, ErrUnexpected)
	}

	n.chainID = chainID
	return chainID, nil
}

// creationInput is the contract bytecode followed by the ABI-encoded constructor values.
func creationInput(contract *sol.Contract, args []interface{}) ([]byte, error) {
	parsedABI, err := abi.JSON(bytes.NewReader(contract.ABI))
	if err != nil {
		err = errors.Wrapf(err, "failed to parse ABI of %s", contract.Name)
		return nil, err
	}

	bytecode, err := hexutil.Decode("0x" + strings.TrimPrefix(contract.Bin, "0x"))
	if err != nil {
		err = errors.Wrapf(err, "bytecode of %s is not valid hex, unlinked libraries?", contract.Name)
		return nil, err
	} else if len(bytecode) == 0 {
		err = errors.Errorf("%s has no bytecode, abstract contract or interface?", contract.Name)
		return nil, err
	}

	packedArgs, err := parsedABI.Pack("", args...)
	if err != nil {
		err = errors.Wrap(err, "failed to ABI-encode constructor values")
		return nil, err
	}

	return append(bytecode, packedArgs...), nil
}
