package state

import (
	"errors"

	"github.com/ledgerd/powchain/foundation/blockchain/accounts"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// ErrNotFound is returned when the queried value doesn't exist.
var ErrNotFound = errors.New("not found")

// =============================================================================

// QueryAccount returns a copy of the account information.
func (s *State) QueryAccount(account database.AccountID) (accounts.Info, error) {
	if info, exists := s.accounts.Query(account); exists {
		return info, nil
	}

	return accounts.Info{}, ErrNotFound
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := uint64(s.db.Length() - 1)
	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest {
		to = latest
	}

	return s.db.CopyRange(from, to)
}

// QueryBlocksByAccount returns the set of blocks holding a transaction sent
// or received by the account. If the account is empty, all blocks are
// returned.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	var out []database.Block

	for _, block := range s.RetrieveChain() {
		if accountID == "" {
			out = append(out, block)
			continue
		}

		for _, tx := range block.Transactions {
			if tx.Sender == accountID || tx.Recipient == accountID {
				out = append(out, block)
				break
			}
		}
	}

	return out
}
