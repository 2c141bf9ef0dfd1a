package state

import (
	"errors"
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/mempool"
)

// ErrGenesisMismatch is returned when a candidate chain doesn't start with
// the genesis block.
var ErrGenesisMismatch = fmt.Errorf("%w: chain doesn't start with the genesis block", database.ErrValidation)

// =============================================================================

// ValidateChain reports whether the local chain is valid.
func (s *State) ValidateChain() bool {
	return database.ValidateChain(s.RetrieveChain())
}

// ReplaceChain applies the longest valid chain rule. The candidate replaces
// the local chain only when it is strictly longer and valid. A candidate of
// the same length or shorter is ignored and false is returned with no error.
//
// On replacement, mempool transactions included in the candidate are removed
// and the transfers of local blocks that were abandoned are put back into
// the mempool so they can be mined again.
func (s *State) ReplaceChain(candidate []database.Block) (bool, error) {
	replaced, err := s.replaceChain(candidate)
	if err != nil || !replaced {
		return replaced, err
	}

	// Any block being mined points at a block that may no longer exist.
	s.Worker.SignalCancelMining()

	if s.autoMine && s.mempool.Count() > 0 {
		s.Worker.SignalStartMining()
	}

	return true, nil
}

// replaceChain validates and swaps the chain under the write lock.
func (s *State) replaceChain(candidate []database.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidate) <= s.db.Length() {
		s.evHandler("state: ReplaceChain: ignored: candidate[%d]: local[%d]", len(candidate), s.db.Length())
		return false, nil
	}

	if !candidate[0].IsGenesis() {
		return false, ErrGenesisMismatch
	}

	if err := database.ValidateChainErr(candidate); err != nil {
		return false, err
	}

	for i, block := range candidate[1:] {
		if err := validateBlockTransactions(block); err != nil {
			return false, fmt.Errorf("block %d: %w", i+1, err)
		}
	}

	if err := uniqueTransactions(candidate, nil); err != nil {
		return false, err
	}

	s.evHandler("state: ReplaceChain: replacing: candidate[%d]: local[%d]", len(candidate), s.db.Length())

	local := s.db.Copy()

	if err := s.db.Replace(candidate); err != nil {
		return false, fmt.Errorf("replace chain: %w", err)
	}

	adopted := make(map[string]struct{}, len(candidate))
	var adoptedTrans []database.Tx
	for _, block := range candidate {
		adopted[block.Hash()] = struct{}{}
		adoptedTrans = append(adoptedTrans, block.Transactions...)
	}

	removed := s.mempool.RemoveIncluded(adoptedTrans)

	var restored int
	for _, block := range local {
		if _, exists := adopted[block.Hash()]; exists {
			continue
		}

		for _, tx := range block.Transactions {
			if tx.Coinbase || s.db.ContainsTx(tx.Signature) {
				continue
			}

			switch err := s.mempool.Add(tx); {
			case err == nil:
				restored++
			case !errors.Is(err, mempool.ErrDuplicate):
				s.evHandler("state: ReplaceChain: WARNING: restore tx[%s]: %s", tx, err)
			}
		}
	}

	s.accounts.Reset(candidate)

	s.evHandler("state: ReplaceChain: replaced: length[%d]: removed[%d]: restored[%d]", len(candidate), removed, restored)

	return true, nil
}
