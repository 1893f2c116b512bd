// Package wallet provides the signing accounts used to authorize contract deployments.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var (
	ErrUnknownAccount  = errors.New("account is not managed by wallet")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidHDRange  = errors.New("HD account range exceeds non-hardened indexes")
	ErrNoKeys          = errors.New("wallet holds no keys")
)

// Provider lists signing accounts and authorizes transactions on their behalf.
// Accounts are returned in a stable order, the first one is the default sender.
type Provider interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	SignerFn(chainID *big.Int, from common.Address) (bind.SignerFn, error)
}

type SignerType string

const (
	SignerEIP155    SignerType = "eip155"
	SignerHomestead SignerType = "homestead"
)

// keyedWallet holds raw private keys in memory, ordered as derived or provided.
type keyedWallet struct {
	signerType SignerType
	addresses  []common.Address
	keys       map[common.Address]*ecdsa.PrivateKey
}

func newKeyedWallet(signerType SignerType, keys ...*ecdsa.PrivateKey) (*keyedWallet, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	if len(signerType) == 0 {
		signerType = SignerEIP155
	}

	w := &keyedWallet{
		signerType: signerType,
		addresses:  make([]common.Address, 0, len(keys)),
		keys:       make(map[common.Address]*ecdsa.PrivateKey, len(keys)),
	}

	for _, pk := range keys {
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		if _, ok := w.keys[addr]; ok {
			continue
		}

		w.addresses = append(w.addresses, addr)
		w.keys[addr] = pk
	}

	return w, nil
}

func (w *keyedWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	accounts := make([]common.Address, len(w.addresses))
	copy(accounts, w.addresses)
	return accounts, nil
}

func (w *keyedWallet) SignerFn(chainID *big.Int, from common.Address) (bind.SignerFn, error) {
	pk, ok := w.keys[from]
	if !ok {
		return nil, errors.Wrap(ErrUnknownAccount, from.Hex())
	}

	return getSignerFn(w.signerType, chainID, from, pk)
}

func getSignerFn(
	signerType SignerType,
	chainID *big.Int,
	from common.Address,
	pk *ecdsa.PrivateKey,
) (bind.SignerFn, error) {
	switch signerType {
	case SignerEIP155:
		opts, err := bind.NewKeyedTransactorWithChainID(pk, chainID)
		if err != nil {
			err = errors.Wrap(err, "failed to init NewKeyedTransactorWithChainID")
			return nil, err
		}

		return opts.Signer, nil

	case SignerHomestead:
		signerFn := func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if address != from {
				err := errors.Errorf("not authorized to sign with %s", address.Hex())
				return nil, err
			}

			signer := &types.HomesteadSigner{}
			txHash := signer.Hash(tx)
			signature, err := crypto.Sign(txHash.Bytes(), pk)
			if err != nil {
				return nil, err
			}

			return tx.WithSignature(signer, signature)
		}

		return signerFn, nil

	default:
		err := errors.Errorf("unsupported signer type: %s", signerType)
		return nil, err
	}
}
