// Package mempool maintains the pool of signed transactions waiting to be
// included in the next mined block.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// Set of errors returned by the mempool.
var (
	// ErrDuplicate is returned when a transaction with the same signature
	// is already in the pool.
	ErrDuplicate = fmt.Errorf("%w: transaction already in pool", database.ErrDuplicate)

	// ErrUnsigned is returned when a transaction has no signature to key on.
	ErrUnsigned = errors.New("transaction has no signature")
)

// Mempool represents a cache of transactions keyed by signature. The order
// transactions were added in is kept so blocks are built in arrival order.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Tx
	order []string
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Tx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends the transaction to the pool. The transaction is not
// validated here, the caller owns that decision.
func (mp *Mempool) Add(tx database.Tx) error {
	if tx.Signature == "" {
		return ErrUnsigned
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.Signature]; exists {
		return ErrDuplicate
	}

	mp.pool[tx.Signature] = tx
	mp.order = append(mp.order, tx.Signature)

	return nil
}

// Exists reports whether a transaction with the signature is in the pool.
func (mp *Mempool) Exists(sig string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[sig]
	return exists
}

// Delete removes a transaction from the pool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.remove(map[string]bool{tx.Signature: true})
}

// RemoveIncluded removes every pooled transaction found in the specified
// list and returns the number removed.
func (mp *Mempool) RemoveIncluded(txs []database.Tx) int {
	sigs := make(map[string]bool, len(txs))
	for _, tx := range txs {
		sigs[tx.Signature] = true
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.remove(sigs)
}

// Copy returns the transactions in the order they were added.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Tx, 0, len(mp.order))
	for _, sig := range mp.order {
		txs = append(txs, mp.pool[sig])
	}

	return txs
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
	mp.order = nil
}

// =============================================================================

// remove deletes the transactions with the specified signatures. The caller
// must hold the write lock.
func (mp *Mempool) remove(sigs map[string]bool) int {
	var removed int

	order := mp.order[:0]
	for _, sig := range mp.order {
		if sigs[sig] {
			delete(mp.pool, sig)
			removed++
			continue
		}
		order = append(order, sig)
	}
	mp.order = order

	return removed
}
