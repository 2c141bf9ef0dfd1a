package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// Set of errors returned when processing blocks.
var (
	// ErrDuplicateBlock is returned when the block is already in the chain.
	ErrDuplicateBlock = fmt.Errorf("%w: block already in chain", database.ErrDuplicate)

	// ErrStaleBlock is returned when a mined block no longer points at the
	// latest block because the chain changed while mining.
	ErrStaleBlock = fmt.Errorf("%w: chain changed while mining, block discarded", database.ErrValidation)

	// ErrTxRepeated is returned when the same transaction appears more than
	// once in a block or in a candidate chain.
	ErrTxRepeated = fmt.Errorf("%w: transaction repeated", database.ErrDuplicate)
)

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The block holds a coinbase paying the
// mining reward to this node followed by every transaction in the mempool.
// An empty mempool is legal and produces a block with only the coinbase.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: snapshot mempool and latest block")

	var args database.POWArgs
	s.mu.RLock()
	{
		args = database.POWArgs{
			Signer:     s.identity,
			Difficulty: s.genesis.Difficulty,
			Reward:     s.genesis.MiningReward,
			PrevBlock:  s.db.LatestBlock(),
			Trans:      s.mempool.Copy(),
			EvHandler:  s.evHandler,
		}
	}
	s.mu.RUnlock()

	s.evHandler("state: MineNewBlock: MINING: perform POW: trans[%d]", len(args.Trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, args)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.appendMined(block); err != nil {
		return database.Block{}, err
	}

	s.Worker.SignalShareBlock(block)

	return block, nil
}

// ValidateBlock reports whether the block solves its own proof of work.
func (s *State) ValidateBlock(block database.Block) bool {
	return database.ValidateBlock(block)
}

// AddBlock appends the block to the chain and removes the transactions it
// includes from the mempool. The block must point at the latest block.
func (s *State) AddBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addBlock(block)
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain and relays it to
// the known peers. A block that doesn't link to the latest block returns
// ErrChainForked and the node must resync with its peers.
func (s *State) ProcessProposedBlock(block database.Block) error {
	hash := block.Hash()

	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PreviousHash, hash, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", hash)

	if err := s.validateUpdateDatabase(block); err != nil {
		if errors.Is(err, database.ErrChainForked) {
			s.evHandler("state: ProcessProposedBlock: fork detected: signal resync")
			s.Worker.SignalResync()
		}
		return err
	}

	// Peers that already have the block reject it as a duplicate, which
	// ends the relay.
	s.Worker.SignalShareBlock(block)

	// If a mining operation is running it is working on a stale block and
	// needs to stop immediately.
	s.Worker.SignalCancelMining()

	if s.autoMine && s.mempool.Count() > 0 {
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to storage.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := block.Hash()

	// Drop blocks we already have without validating them again.
	if s.db.Contains(hash) {
		return ErrDuplicateBlock
	}

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := block.ValidatePOW(); err != nil {
		return err
	}

	if latest := s.db.LatestBlock().Hash(); block.PreviousHash != latest {
		return fmt.Errorf("%w: previous hash %s, latest %s", database.ErrChainForked, block.PreviousHash, latest)
	}

	if err := validateBlockTransactions(block); err != nil {
		return err
	}

	if err := uniqueTransactions([]database.Block{block}, s.db.ContainsTx); err != nil {
		return err
	}

	return s.addBlock(block)
}

// appendMined adds the locally mined block only if the chain still ends at
// the block it was mined on.
func (s *State) appendMined(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if latest := s.db.LatestBlock().Hash(); block.PreviousHash != latest {
		s.evHandler("state: appendMined: stale block: prevBlk[%s]: latest[%s]", block.PreviousHash, latest)
		return ErrStaleBlock
	}

	return s.addBlock(block)
}

// addBlock writes the block and updates the mempool and accounts. The
// caller must hold the write lock.
func (s *State) addBlock(block database.Block) error {
	s.evHandler("state: addBlock: write to storage")

	if err := s.db.Append(block); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrDuplicateBlock
		}
		return err
	}

	s.evHandler("state: addBlock: update accounts and remove from mempool")

	removed := s.mempool.RemoveIncluded(block.Transactions)
	s.accounts.ApplyBlock(block)

	s.evHandler("state: addBlock: blk[%s]: removed from mempool[%d]", block.Hash(), removed)

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash(), string(blockJSON))
}

// validateBlockTransactions checks the signature of every transaction in the
// block, coinbase included.
func validateBlockTransactions(block database.Block) error {
	for i, tx := range block.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	return nil
}

// uniqueTransactions returns an error when a transaction signature appears
// twice across the blocks or is reported as already confirmed by inChain.
// A nil inChain only checks the blocks against each other.
func uniqueTransactions(blocks []database.Block, inChain func(sig string) bool) error {
	seen := make(map[string]struct{})

	for _, block := range blocks {
		for i, tx := range block.Transactions {
			if inChain != nil && inChain(tx.Signature) {
				return fmt.Errorf("transaction %d: %w", i, ErrTxInChain)
			}

			if _, exists := seen[tx.Signature]; exists {
				return fmt.Errorf("transaction %d: %w", i, ErrTxRepeated)
			}
			seen[tx.Signature] = struct{}{}
		}
	}

	return nil
}
