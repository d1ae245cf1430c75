package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the private key used for transaction signing and for
// EIP-191 personal-message signing during publication session auth.
type Signer struct {
	key  *ecdsa.PrivateKey
	addr ethcommon.Address
}

// NewKeystoreSigner loads a geth-style encrypted keystore file.
// The passphrase is consumed as-is; the caller should wipe it afterwards.
func NewKeystoreSigner(path string, passphrase []byte) (*Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	key, err := keystore.DecryptKey(raw, string(passphrase))
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}

	return &Signer{key: key.PrivateKey, addr: crypto.PubkeyToAddress(key.PrivateKey.PublicKey)}, nil
}

// NewHexSigner builds a Signer from a raw hex-encoded private key.
// Intended for local development against a test node only.
func NewHexSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the account address derived from the key.
func (s *Signer) Address() ethcommon.Address {
	return s.addr
}

// SignTx signs tx for the given chain id.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// SignText signs msg with the EIP-191 "personal sign" scheme, returning a
// 65-byte [R || S || V] signature with V in {27, 28} as wallets produce it.
func (s *Signer) SignText(msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}
