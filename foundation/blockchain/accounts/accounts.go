// Package accounts maintains a view of account balances derived from the
// blocks in the chain. The view is informational: balances are never used
// to accept or reject transactions.
package accounts

import (
	"sync"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// Info represents information stored for an individual account. The
// balance is signed since transfers are not checked against funds.
type Info struct {
	Balance  int64  `json:"balance"`
	Received uint64 `json:"received"`
	Sent     uint64 `json:"sent"`
	Mined    uint64 `json:"mined"`
	Trans    uint64 `json:"trans"`
}

// Accounts manages data related to accounts who have transacted on
// the blockchain.
type Accounts struct {
	mu   sync.RWMutex
	info map[database.AccountID]Info
}

// New constructs an empty set of accounts.
func New() *Accounts {
	return &Accounts{
		info: make(map[database.AccountID]Info),
	}
}

// FromBlocks constructs the accounts by applying every block in order.
func FromBlocks(blocks []database.Block) *Accounts {
	act := New()
	for _, block := range blocks {
		act.ApplyBlock(block)
	}

	return act
}

// Reset rebuilds the accounts from the specified chain.
func (act *Accounts) Reset(blocks []database.Block) {
	fresh := FromBlocks(blocks)

	act.mu.Lock()
	defer act.mu.Unlock()

	act.info = fresh.info
}

// ApplyBlock applies every transaction in the block. A coinbase credits the
// recipient, a transfer moves the amount from the sender to the recipient.
func (act *Accounts) ApplyBlock(block database.Block) {
	act.mu.Lock()
	defer act.mu.Unlock()

	for _, tx := range block.Transactions {
		to := act.info[tx.Recipient]
		to.Balance += int64(tx.Amount)
		to.Trans++

		if tx.Coinbase {
			to.Mined += tx.Amount
			act.info[tx.Recipient] = to
			continue
		}

		to.Received += tx.Amount
		act.info[tx.Recipient] = to

		from := act.info[tx.Sender]
		from.Balance -= int64(tx.Amount)
		from.Sent += tx.Amount
		from.Trans++
		act.info[tx.Sender] = from
	}
}

// Query returns the information for the specified account.
func (act *Accounts) Query(account database.AccountID) (Info, bool) {
	act.mu.RLock()
	defer act.mu.RUnlock()

	info, exists := act.info[account]
	return info, exists
}

// Copy makes a copy of the current information for all accounts.
func (act *Accounts) Copy() map[database.AccountID]Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := make(map[database.AccountID]Info, len(act.info))
	for addr, info := range act.info {
		accounts[addr] = info
	}
	return accounts
}
