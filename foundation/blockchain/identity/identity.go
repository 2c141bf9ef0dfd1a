// Package identity maintains the keypair representing this node's account.
// The keypair is generated once at startup, is held for the life of the
// process and is never persisted or rotated.
package identity

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/signature"
)

// ErrSigning is returned when the identity can't be used to sign.
var ErrSigning = errors.New("identity unusable for signing")

// Identity represents the keypair of a node.
type Identity struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// New generates a new keypair for the node.
func New() (*Identity, error) {
	pk, err := signature.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return FromPrivateKey(pk), nil
}

// FromPrivateKey constructs an identity from an existing private key.
func FromPrivateKey(pk *ecdsa.PrivateKey) *Identity {
	id := Identity{
		privateKey: pk,
	}

	if pk != nil {
		id.address = signature.PublicKeyToAddress(pk.PublicKey)
	}

	return &id
}

// Address returns the public address of the identity.
func (id *Identity) Address() string {
	if id == nil {
		return ""
	}

	return id.address
}

// Sign signs the digest with the private key of the identity.
func (id *Identity) Sign(digest []byte) (string, error) {
	if id == nil || id.privateKey == nil {
		return "", ErrSigning
	}

	sig, err := signature.Sign(digest, id.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSigning, err)
	}

	return sig, nil
}
