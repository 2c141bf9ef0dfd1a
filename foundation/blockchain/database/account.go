package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ledgerd/powchain/foundation/blockchain/signature"
)

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the blockchain. It is the hex encoding of
// the compressed public key, so anyone can verify a signature with it.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(signature.PublicKeyToAddress(pk))
}

// IsAccountID verifies whether the underlying data represents a valid
// compressed public key.
func (a AccountID) IsAccountID() bool {
	_, err := signature.AddressToPublicKey(string(a))
	return err == nil
}
