package database

import (
	"encoding/json"
	"slices"

	"github.com/ledgerd/powchain/foundation/blockchain/signature"
)

// genesisTimestamp is the fixed timestamp of the genesis block. Every node
// builds the same genesis block so chains from different nodes share the
// same root.
const genesisTimestamp = 1337

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Transactions []Tx   `json:"transactions"`           // Coinbase first, then the pending transactions.
	PreviousHash string `json:"previousHash,omitempty"` // Hash of the previous block, absent for genesis.
	Timestamp    int64  `json:"timestamp"`              // Unix time in milliseconds the block was mined.
	Nonce        uint64 `json:"nonce"`                  // Value identified to solve the hash solution.
	Difficulty   uint   `json:"difficulty"`             // Number of leading 0's needed to solve the hash solution.
}

// NewBlock constructs an unsolved block with a nonce of zero.
func NewBlock(trans []Tx, previousHash string, timestamp int64, difficulty uint) Block {
	return Block{
		Transactions: slices.Clone(trans),
		PreviousHash: previousHash,
		Timestamp:    timestamp,
		Difficulty:   difficulty,
	}
}

// Genesis returns the first block of every chain: no transactions, no
// previous hash, a nonce of zero and a difficulty of zero. The difficulty
// is not taken from the node configuration so nodes running different
// difficulties still agree on the root.
func Genesis() Block {
	return NewBlock([]Tx{}, "", genesisTimestamp, 0)
}

// MarshalJSON writes an empty list instead of null when there are no
// transactions so the canonical form never depends on nil vs empty.
func (b Block) MarshalJSON() ([]byte, error) {
	type block Block

	cpy := block(b)
	if cpy.Transactions == nil {
		cpy.Transactions = []Tx{}
	}

	return json.Marshal(cpy)
}

// Hash returns the unique hash for the Block. All the fields, including
// the nonce and the transactions, are part of the hash.
func (b Block) Hash() string {
	return signature.Hash(b)
}

// IsGenesis reports whether this block is the genesis block.
func (b Block) IsGenesis() bool {
	return b.Hash() == Genesis().Hash()
}

// Copy returns a copy of the block that shares no memory with the original.
func (b Block) Copy() Block {
	b.Transactions = slices.Clone(b.Transactions)
	return b
}

// Includes reports whether a transaction with the specified signature is
// part of this block.
func (b Block) Includes(sig string) bool {
	for _, tx := range b.Transactions {
		if tx.Signature == sig {
			return true
		}
	}
	return false
}

// =============================================================================

// BlockData represents what is written to storage and sent over the network.
type BlockData struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
	Block  Block  `json:"block"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(number uint64, block Block) BlockData {
	return BlockData{
		Number: number,
		Hash:   block.Hash(),
		Block:  block,
	}
}

// ToBlock converts the storage value back into a block, checking the
// recorded hash still matches the block content.
func ToBlock(blockData BlockData) (Block, error) {
	if hash := blockData.Block.Hash(); hash != blockData.Hash {
		return Block{}, validationErr("block %d hash mismatch, got %s, exp %s", blockData.Number, hash, blockData.Hash)
	}

	return blockData.Block, nil
}
