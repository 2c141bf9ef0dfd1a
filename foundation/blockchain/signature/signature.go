// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
//
// Hashes are always computed over the canonical encoding of a value. Two
// nodes that agree on the canonical encoding agree on every block hash, so
// the encoding is a versioned wire contract:
//
//   - JSON with object keys sorted by byte order at every depth
//   - no insignificant whitespace and no HTML escaping of <, > and &
//   - integers are written as plain decimal numbers
//   - optional fields that are absent are omitted, never written as null
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalVersion identifies the canonical encoding rules implemented by
// Canonical. It changes whenever those rules change.
const CanonicalVersion = 1

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Encoded lengths of the values produced by this package.
const (
	HashLength       = 2 * sha256.Size
	AddressLength    = 2 + 2*33
	PrivateKeyLength = 2 + 2*32
	SignatureLength  = 2 + 2*crypto.SignatureLength
)

// =============================================================================

// Canonical returns the canonical encoding of the value.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Decoding into generic values keeps numbers untouched and turns every
	// object into a map, which the encoder writes with sorted keys.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Digest returns the 32 byte SHA-256 digest of the canonical encoding
// of the value.
func Digest(value any) ([]byte, error) {
	data, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Hash returns a unique string for the value.
func Hash(value any) string {
	digest, err := Digest(value)
	if err != nil {
		return ZeroHash
	}

	return hex.EncodeToString(digest)
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != HashLength || difficulty > HashLength {
		return false
	}

	for i := range difficulty {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// GenerateKey produces a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// PublicKeyToAddress converts the public key to its address string, the hex
// encoding of the compressed key.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.CompressPubkey(&pk))
}

// AddressToPublicKey converts an address string back into a public key.
func AddressToPublicKey(address string) (*ecdsa.PublicKey, error) {
	if len(address) != AddressLength {
		return nil, fmt.Errorf("invalid address length %d", len(address))
	}

	data, err := hexutil.Decode(address)
	if err != nil {
		return nil, err
	}

	return crypto.DecompressPubkey(data)
}

// PrivateKeyString returns the hex encoding of the private key.
func PrivateKeyString(pk *ecdsa.PrivateKey) string {
	return hexutil.Encode(crypto.FromECDSA(pk))
}

// =============================================================================

// Sign uses the specified private key to sign the digest. Signing is
// deterministic (RFC 6979) and produces the 65 byte [R|S|V] form.
func Sign(digest []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", errors.New("private key is missing")
	}

	if len(digest) != sha256.Size {
		return "", fmt.Errorf("digest must be %d bytes, got %d", sha256.Size, len(digest))
	}

	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the digest by the private
// key behind the address. Only one encoding of a signature is accepted:
// a 0x prefix, lowercase hex, a low S value and a recovery id of 0 or 1.
// Malformed input yields false.
func Verify(address string, digest []byte, sig string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if len(digest) != sha256.Size || len(sig) != SignatureLength {
		return false
	}

	if !isLowerHex(sig) {
		return false
	}

	pk, err := AddressToPublicKey(address)
	if err != nil {
		return false
	}

	data, err := hex.DecodeString(sig[2:])
	if err != nil {
		return false
	}

	if v := data[crypto.RecoveryIDOffset]; v != 0 && v != 1 {
		return false
	}

	rs := data[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.CompressPubkey(pk), digest, rs) {
		return false
	}

	recovered, err := crypto.SigToPub(digest, data)
	if err != nil {
		return false
	}

	return PublicKeyToAddress(*recovered) == address
}

// isLowerHex reports whether s is 0x followed by lowercase hex digits.
func isLowerHex(s string) bool {
	if len(s) < 2 || s[:2] != "0x" {
		return false
	}

	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}

	return true
}
