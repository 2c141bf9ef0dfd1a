package state

import (
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// ErrCoinbaseSubmitted is returned when a coinbase transaction is submitted
// to the mempool. Coinbase transactions only exist inside mined blocks.
var ErrCoinbaseSubmitted = fmt.Errorf("%w: coinbase transactions can't be submitted", database.ErrValidation)

// ErrTxInChain is returned when the transaction is already in a block.
var ErrTxInChain = fmt.Errorf("%w: transaction already in chain", database.ErrDuplicate)

// =============================================================================

// CreateTransaction constructs a transaction from this node's account to the
// recipient, signs it with the node identity and adds it to the mempool.
func (s *State) CreateTransaction(recipient database.AccountID, amount uint64) (database.Tx, error) {
	sender := database.AccountID(s.identity.Address())

	tx, err := database.NewTx(sender, recipient, amount, false).Sign(s.identity)
	if err != nil {
		return database.Tx{}, err
	}

	if err := s.UpsertWalletTransaction(tx); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// ValidateTransaction reports whether the transaction carries a valid
// signature from its sender.
func (s *State) ValidateTransaction(tx database.Tx) bool {
	return tx.IsValid()
}

// UpsertWalletTransaction accepts a transaction from a wallet for inclusion
// and shares it with the known peers.
func (s *State) UpsertWalletTransaction(tx database.Tx) error {
	if err := s.AddTransaction(tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)

	return nil
}

// UpsertNodeTransaction accepts a transaction from a node for inclusion and
// relays it. A peer that already holds the transaction rejects it as a
// duplicate, so the relay stops there.
func (s *State) UpsertNodeTransaction(tx database.Tx) error {
	if err := s.AddTransaction(tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)

	return nil
}

// AddTransaction validates the transaction and inserts it into the mempool.
// Rejected transactions leave the mempool unchanged.
func (s *State) AddTransaction(tx database.Tx) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}

	if err := s.addTransaction(tx); err != nil {
		return err
	}

	s.evHandler("state: AddTransaction: tx[%s]", tx)

	if s.autoMine {
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// addTransaction inserts the validated transaction under the write lock so
// a block being appended can't interleave with the insert.
func (s *State) addTransaction(tx database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.ContainsTx(tx.Signature) {
		return ErrTxInChain
	}

	return s.mempool.Add(tx)
}

// validateTransaction takes the signed transaction and validates it has
// a proper signature and other aspects of the data.
func validateTransaction(tx database.Tx) error {
	if tx.Coinbase {
		return ErrCoinbaseSubmitted
	}

	return tx.Validate()
}
