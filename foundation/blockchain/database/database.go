// Package database handles all the lower level support for maintaining the
// blockchain: the transaction and block models, proof of work, block and
// chain validation and the ordered chain of blocks kept in memory and
// written through a serializer.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the ordered chain of blocks. Index 0 is always genesis.
type Database struct {
	mu         sync.RWMutex
	blocks     []Block
	hashes     map[string]int
	txs        map[string]struct{}
	serializer Serializer
}

// New constructs a new database and loads the blockchain from the serializer.
// When the serializer is empty, the genesis block is written. A stored chain
// that fails validation is an error.
func New(serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	db := Database{
		hashes:     make(map[string]int),
		txs:        make(map[string]struct{}),
		serializer: serializer,
	}

	iter := serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		db.push(block)
	}

	if len(db.blocks) == 0 {
		evHandler("database: New: writing genesis block")

		genesis := Genesis()
		if err := serializer.Write(NewBlockData(0, genesis)); err != nil {
			return nil, fmt.Errorf("write genesis: %w", err)
		}
		db.push(genesis)

		return &db, nil
	}

	evHandler("database: New: loaded blocks[%d]", len(db.blocks))

	if !db.blocks[0].IsGenesis() {
		return nil, validationErr("stored chain does not start with the genesis block")
	}

	if err := ValidateChainErr(db.blocks); err != nil {
		return nil, fmt.Errorf("stored chain: %w", err)
	}

	return &db, nil
}

// Close closes the underlying serializer.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Append adds the block to the end of the chain. The block must point at
// the current latest block. Proof of work is not checked here.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.hashes[block.Hash()]; exists {
		return fmt.Errorf("%w: block %s already in chain", ErrDuplicate, block.Hash())
	}

	latest := db.blocks[len(db.blocks)-1]
	if block.PreviousHash != latest.Hash() {
		return fmt.Errorf("%w: previous hash %s, latest %s", ErrChainForked, block.PreviousHash, latest.Hash())
	}

	block = block.Copy()
	if err := db.serializer.Write(NewBlockData(uint64(len(db.blocks)), block)); err != nil {
		return err
	}

	db.push(block)
	return nil
}

// Replace swaps the entire chain for the specified blocks. The caller is
// responsible for validating the blocks. The chain in memory changes only
// once every block is written. On a failed write the previous chain is
// written back to storage.
func (db *Database) Replace(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("replacement chain is empty")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	next := Database{
		hashes: make(map[string]int, len(blocks)),
		txs:    make(map[string]struct{}),
	}
	for _, block := range blocks {
		next.push(block.Copy())
	}

	if err := db.store(next.blocks); err != nil {
		if restoreErr := db.store(db.blocks); restoreErr != nil {
			return fmt.Errorf("%w: restore previous chain: %w", err, restoreErr)
		}
		return err
	}

	db.blocks = next.blocks
	db.hashes = next.hashes
	db.txs = next.txs

	return nil
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1].Copy()
}

// Length returns the number of blocks in the chain including genesis.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Contains reports whether a block with the specified hash is in the chain.
func (db *Database) Contains(hash string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.hashes[hash]
	return exists
}

// ContainsTx reports whether a transaction with the specified signature is
// in any block of the chain.
func (db *Database) ContainsTx(sig string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.txs[sig]
	return exists
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d not found", num)
	}

	return db.blocks[num].Copy(), nil
}

// Copy returns a copy of the entire chain.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	for i, block := range db.blocks {
		blocks[i] = block.Copy()
	}

	return blocks
}

// CopyRange returns a copy of the blocks from index from to index to inclusive.
func (db *Database) CopyRange(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	last := uint64(len(db.blocks) - 1)
	if to > last {
		to = last
	}

	var blocks []Block
	for i := from; i <= to && from <= last; i++ {
		blocks = append(blocks, db.blocks[i].Copy())
	}

	return blocks
}

// =============================================================================

// store rewrites storage to hold exactly the specified blocks. The caller
// must hold the lock.
func (db *Database) store(blocks []Block) error {
	if err := db.serializer.Reset(); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}

	for i, block := range blocks {
		if err := db.serializer.Write(NewBlockData(uint64(i), block)); err != nil {
			return fmt.Errorf("write block %d: %w", i, err)
		}
	}

	return nil
}

// push adds the block to memory. The caller must hold the lock.
func (db *Database) push(block Block) {
	db.hashes[block.Hash()] = len(db.blocks)
	db.blocks = append(db.blocks, block)

	for _, tx := range block.Transactions {
		db.txs[tx.Signature] = struct{}{}
	}
}
