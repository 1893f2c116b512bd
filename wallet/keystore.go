package wallet

import (
	"context"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

type keystoreWallet struct {
	ks         *keystore.KeyStore
	from       common.Address
	passphrase string
}

// NewKeystoreWallet opens a Geth or Clef keystore dir. When from is set, only that
// account is exposed, otherwise every key in the dir is listed.
func NewKeystoreWallet(dir string, from common.Address, passphrase string) (Provider, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		err = errors.New("failed to locate keystore dir")
		return nil, err
	}

	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	if from != (common.Address{}) && !ks.HasAddress(from) {
		return nil, errors.Wrapf(ErrUnknownAccount, "%s not found in keystore %s", from.Hex(), dir)
	}

	w := &keystoreWallet{
		ks:         ks,
		from:       from,
		passphrase: passphrase,
	}

	return w, nil
}

func (w *keystoreWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	if w.from != (common.Address{}) {
		return []common.Address{w.from}, nil
	}

	list := w.ks.Accounts()
	addresses := make([]common.Address, 0, len(list))
	for _, acc := range list {
		addresses = append(addresses, acc.Address)
	}

	return addresses, nil
}

func (w *keystoreWallet) SignerFn(chainID *big.Int, from common.Address) (bind.SignerFn, error) {
	acc, err := w.ks.Find(accounts.Account{Address: from})
	if err != nil {
		return nil, errors.Wrap(ErrUnknownAccount, from.Hex())
	}

	if err := w.ks.Unlock(acc, w.passphrase); err != nil {
		err = errors.Wrapf(err, "failed to unlock key for %s", from.Hex())
		return nil, err
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(w.ks, acc, chainID)
	if err != nil {
		err = errors.Wrap(err, "failed to init NewKeyStoreTransactorWithChainID")
		return nil, err
	}

	return opts.Signer, nil
}
