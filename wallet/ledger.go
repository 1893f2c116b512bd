package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/usbwallet"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

type ledgerWallet struct {
	hub  *usbwallet.Hub
	from common.Address
}

// NewLedgerWallet signs with the Ethereum app on a Ledger device. The from
// address must be specified, Ledger wallets are not enumerated.
func NewLedgerWallet(from common.Address) (Provider, error) {
	if from == (common.Address{}) {
		err := errors.New("cannot use Ledger without from address specified")
		return nil, err
	}

	hub, err := usbwallet.NewLedgerHub()
	if err != nil {
		err = errors.Wrap(err, "failed to connect with Ethereum app on Ledger device")
		return nil, err
	}

	w := &ledgerWallet{
		hub:  hub,
		from: from,
	}

	return w, nil
}

func (w *ledgerWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{w.from}, nil
}

func (w *ledgerWallet) SignerFn(chainID *big.Int, from common.Address) (bind.SignerFn, error) {
	if from != w.from {
		return nil, errors.Wrap(ErrUnknownAccount, from.Hex())
	}

	signerFn := func(from common.Address, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
		acc := accounts.Account{
			Address: from,
		}

		wallets := w.hub.Wallets()
		for _, hw := range wallets {
			if err := hw.Open(""); err != nil {
				err = errors.Wrap(err, "failed to connect to wallet on Ledger device")
				return nil, err
			}

			if !hw.Contains(acc) {
				if err := hw.Close(); err != nil {
					err = errors.Wrap(err, "failed to disconnect the wallet on Ledger device")
					return nil, err
				}

				continue
			}

			tx, err := hw.SignTx(acc, tx, chainID)
			_ = hw.Close()
			return tx, err
		}

		return nil, errors.Errorf("account %s not found on Ledger", from.String())
	}

	return signerFn, nil
}
