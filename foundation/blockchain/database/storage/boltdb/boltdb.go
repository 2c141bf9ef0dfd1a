// Package boltdb implements the ability to read and write blocks to a
// bolt key/value file, keyed by block number.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// blocksBucket is the bucket holding one entry per block.
var blocksBucket = []byte("blocks")

// ErrNotFound is returned when the block number doesn't exist.
var ErrNotFound = errors.New("block not found")

// =============================================================================

// Bolt represents the serialization implementation for reading and storing
// blocks in a bolt database file. This implements the database.Serializer
// interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the bolt database at the specified path.
func New(dbPath string) (*Bolt, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	f := func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	}

	if err := db.Update(f); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the bolt database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write stores the block under its block number.
func (b *Bolt) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	f := func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(key(blockData.Number), data)
	}

	return b.db.Update(f)
}

// GetBlock returns the contents of the specified block by number.
func (b *Bolt) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	f := func(tx *bolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(key(num))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &blockData)
	}

	if err := b.db.View(f); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (b *Bolt) ForEach() database.Iterator {
	return &boltIterator{bolt: b}
}

// Reset removes every block from the database.
func (b *Bolt) Reset() error {
	f := func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(blocksBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}

		_, err := tx.CreateBucket(blocksBucket)
		return err
	}

	return b.db.Update(f)
}

// key encodes the block number so keys sort in chain order.
func key(num uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, num)
	return k
}

// =============================================================================

// boltIterator represents the iteration implementation for walking
// through and reading blocks from bolt. This implements the database
// Iterator interface.
type boltIterator struct {
	bolt    *Bolt
	current uint64
	eoc     bool
}

// Next retrieves the next block from bolt.
func (bi *boltIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := bi.bolt.GetBlock(bi.current)
	if errors.Is(err, ErrNotFound) {
		bi.eoc = true
	}
	bi.current++

	return blockData, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
