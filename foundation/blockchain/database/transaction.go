package database

import (
	"fmt"
	"time"

	"github.com/ledgerd/powchain/foundation/blockchain/signature"
)

// Signer represents the behavior required to sign a transaction. The
// identity package provides the implementation used by a node.
type Signer interface {
	Address() string
	Sign(digest []byte) (string, error)
}

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	Sender    AccountID `json:"sender"`              // Account sending the value and signing the transaction.
	Recipient AccountID `json:"recipient"`           // Account receiving the value.
	Amount    uint64    `json:"amount"`              // Value transferred or minted.
	Timestamp int64     `json:"timestamp"`           // Unix time in milliseconds the transaction was created.
	Coinbase  bool      `json:"coinbase"`            // Marks the reward minted for the miner of a block.
	Signature string    `json:"signature,omitempty"` // Signature over every other field.
}

// NewTx constructs a new unsigned transaction stamped with the current time.
func NewTx(sender AccountID, recipient AccountID, amount uint64, coinbase bool) Tx {
	return NewTxAt(sender, recipient, amount, coinbase, time.Now().UnixMilli())
}

// NewTxAt constructs a new unsigned transaction with the specified timestamp.
func NewTxAt(sender AccountID, recipient AccountID, amount uint64, coinbase bool, timestamp int64) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: timestamp,
		Coinbase:  coinbase,
	}
}

// Digest returns the 32 byte digest of the transaction without the signature.
func (tx Tx) Digest() ([]byte, error) {
	tx.Signature = ""
	return signature.Digest(tx)
}

// Sign uses the signer to sign the transaction and returns the transaction
// with the signature populated.
func (tx Tx) Sign(signer Signer) (Tx, error) {
	digest, err := tx.Digest()
	if err != nil {
		return Tx{}, err
	}

	sig, err := signer.Sign(digest)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// Validate verifies the transaction has a signature produced by the sender
// over the rest of the transaction. Coinbase transactions are checked the
// same way since the minting node signs them for provenance.
func (tx Tx) Validate() error {
	if tx.Signature == "" {
		return validationErr("transaction is not signed")
	}

	if !tx.Sender.IsAccountID() {
		return validationErr("sender %q is not a valid account", tx.Sender)
	}

	digest, err := tx.Digest()
	if err != nil {
		return validationErr("transaction digest: %s", err)
	}

	if !signature.Verify(string(tx.Sender), digest, tx.Signature) {
		return validationErr("signature does not match transaction from %s", tx.Sender)
	}

	return nil
}

// IsValid is the boolean form of Validate.
func (tx Tx) IsValid() bool {
	return tx.Validate() == nil
}

// Hash returns the unique hash for the signed transaction.
func (tx Tx) Hash() string {
	return signature.Hash(tx)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	sig := tx.Signature
	if len(sig) > 16 {
		sig = sig[:16]
	}

	return fmt.Sprintf("%s->%s:%d:%s", short(tx.Sender), short(tx.Recipient), tx.Amount, sig)
}

// short trims an account for log output.
func short(a AccountID) string {
	if len(a) > 10 {
		return string(a[:10])
	}
	return string(a)
}
