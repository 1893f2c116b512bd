package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// NewPrivateKeyWallet wraps a single hex-encoded secp256k1 key.
func NewPrivateKeyWallet(pkHex string, signerType SignerType) (Provider, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(pkHex), "0x"))
	if err != nil {
		err = errors.Wrap(err, "failed to hex-decode Ethereum ECDSA Private Key")
		return nil, err
	}

	return newKeyedWallet(signerType, pk)
}
