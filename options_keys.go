package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	cli "github.com/jawher/mow.cli"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/InjectiveLabs/contract-deployer/wallet"
)

var (
	keystoreDirSet bool
	keystoreDir    = app.String(cli.StringOpt{
		Name:      "keystore-dir",
		Desc:      "Specify Ethereum keystore dir (Geth or Clef) prefix.",
		EnvVar:    "DEPLOYER_KEYSTORE_DIR",
		SetByUser: &keystoreDirSet,
	})

	fromSet bool
	from    = app.String(cli.StringOpt{
		Name:      "F from",
		Desc:      "Specify the from address. If specified, must be one of the wallet accounts.",
		EnvVar:    "DEPLOYER_FROM",
		SetByUser: &fromSet,
	})

	fromPassphrase = app.String(cli.StringOpt{
		Name:   "from-passphrase",
		Desc:   "Passphrase to unlock the private key from armor, if empty then stdin is used.",
		EnvVar: "DEPLOYER_FROM_PASSPHRASE",
	})

	fromPrivKey = app.String(cli.StringOpt{
		Name:   "P from-pk",
		Desc:   "Provide a raw Ethereum private key of the sender in hex.",
		EnvVar: "DEPLOYER_FROM_PK",
	})

	mnemonic = app.String(cli.StringOpt{
		Name:   "M mnemonic",
		Desc:   "BIP39 mnemonic to derive sender accounts from.",
		EnvVar: "DEPLOYER_MNEMONIC",
	})

	hdPathSet bool
	hdPath    = app.String(cli.StringOpt{
		Name:      "hd-path",
		Desc:      "BIP44 base derivation path, account index is appended.",
		EnvVar:    "DEPLOYER_HD_PATH",
		Value:     wallet.DefaultHDPath,
		SetByUser: &hdPathSet,
	})

	hdIndexSet bool
	hdIndex    = app.Int(cli.IntOpt{
		Name:      "hd-index",
		Desc:      "Index of the first account derived from mnemonic.",
		EnvVar:    "DEPLOYER_HD_INDEX",
		Value:     0,
		SetByUser: &hdIndexSet,
	})

	hdCountSet bool
	hdCount    = app.Int(cli.IntOpt{
		Name:      "hd-count",
		Desc:      "Number of accounts derived from mnemonic.",
		EnvVar:    "DEPLOYER_HD_COUNT",
		Value:     1,
		SetByUser: &hdCountSet,
	})

	useLedger = app.Bool(cli.BoolOpt{
		Name:   "ledger",
		Desc:   "Use the Ethereum app on hardware ledger to sign transactions.",
		EnvVar: "DEPLOYER_USE_LEDGER",
		Value:  false,
	})

	signerTypeSet bool
	signerType    = app.String(cli.StringOpt{
		Name:      "signer",
		Desc:      "Signature scheme for raw keys: eip155 or homestead.",
		EnvVar:    "DEPLOYER_SIGNER",
		Value:     string(wallet.SignerEIP155),
		SetByUser: &signerTypeSet,
	})
)

// fromAddress is the --from value, zero address if not set.
func fromAddress() (common.Address, error) {
	if len(*from) == 0 {
		return common.Address{}, nil
	} else if !common.IsHexAddress(*from) {
		return common.Address{}, errors.Errorf("failed to parse Ethereum from address: %s", *from)
	}

	return common.HexToAddress(*from), nil
}

func initWalletProvider() (wallet.Provider, error) {
	sender, err := fromAddress()
	if err != nil {
		return nil, err
	}

	switch {
	case *useLedger:
		if sender == (common.Address{}) {
			err := errors.New("cannot use Ledger without from address specified")
			return nil, err
		}

		return wallet.NewLedgerWallet(sender)

	case len(*fromPrivKey) > 0:
		return wallet.NewPrivateKeyWallet(*fromPrivKey, wallet.SignerType(*signerType))

	case len(*mnemonic) > 0:
		if err := validateHDRange(*hdIndex, *hdCount); err != nil {
			return nil, err
		}

		return wallet.NewHDWallet(*mnemonic, wallet.HDOptions{
			BasePath:   *hdPath,
			StartIndex: uint32(*hdIndex),
			Count:      uint32(*hdCount),
			SignerType: wallet.SignerType(*signerType),
		})

	case len(*keystoreDir) > 0:
		// without --from every key of the dir is listed, the first one signs
		pass := *fromPassphrase
		if len(pass) == 0 {
			if pass, err = ethPassFromStdin(); err != nil {
				return nil, err
			}
		}

		return wallet.NewKeystoreWallet(*keystoreDir, sender, pass)

	default:
		err := errors.New("insufficient ethereum key details provided")
		return nil, err
	}
}

// validateHDRange rejects ranges that do not fit non-hardened BIP32 indexes.
func validateHDRange(index, count int) error {
	if index < 0 || count < 1 || int64(index)+int64(count) > int64(wallet.MaxHDIndex) {
		return errors.Errorf("invalid HD account range: index %d, count %d", index, count)
	}

	return nil
}

func ethPassFromStdin() (string, error) {
	fmt.Print("Passphrase for Ethereum account: ")
	bytePassword, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		err := errors.Wrap(err, "failed to read password from stdin")
		return "", err
	}

	password := string(bytePassword)
	return strings.TrimSpace(password), nil
}
