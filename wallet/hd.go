package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// DefaultHDPath is the BIP44 Ethereum prefix, account index gets appended to it.
const DefaultHDPath = "m/44'/60'/0'/0"

// MaxHDIndex bounds derived account indexes, anything above is a hardened index.
const MaxHDIndex = hdkeychain.HardenedKeyStart

type HDOptions struct {
	BasePath   string
	StartIndex uint32
	Count      uint32
	SignerType SignerType
}

// NewHDWallet derives Count accounts from the BIP39 mnemonic, starting at
// BasePath/StartIndex. Zero options mean DefaultHDPath, index 0, one account.
func NewHDWallet(mnemonic string, opts HDOptions) (Provider, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	if len(opts.BasePath) == 0 {
		opts.BasePath = DefaultHDPath
	}
	if opts.Count == 0 {
		opts.Count = 1
	}
	if uint64(opts.StartIndex)+uint64(opts.Count) > MaxHDIndex {
		err := errors.Wrapf(ErrInvalidHDRange, "index %d, count %d", opts.StartIndex, opts.Count)
		return nil, err
	}

	basePath, err := accounts.ParseDerivationPath(opts.BasePath)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse derivation path %s", opts.BasePath)
		return nil, err
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		err = errors.Wrap(err, "failed to derive seed from mnemonic")
		return nil, err
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		err = errors.Wrap(err, "failed to init HD master key")
		return nil, err
	}

	keys := make([]*ecdsa.PrivateKey, 0, opts.Count)
	for i := uint32(0); i < opts.Count; i++ {
		path := make(accounts.DerivationPath, 0, len(basePath)+1)
		path = append(path, basePath...)
		path = append(path, opts.StartIndex+i)

		pk, err := deriveKey(master, path)
		if err != nil {
			err = errors.Wrapf(err, "failed to derive key at %s", path.String())
			return nil, err
		}

		keys = append(keys, pk)
	}

	return newKeyedWallet(opts.SignerType, keys...)
}

func deriveKey(master *hdkeychain.ExtendedKey, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	key := master
	for _, n := range path {
		var err error
		if key, err = key.Derive(n); err != nil {
			return nil, err
		}
	}

	ecPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}

	return crypto.ToECDSA(ecPriv.Serialize())
}
