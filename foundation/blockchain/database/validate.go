package database

import (
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/signature"
)

// ValidateBlock reports whether the hash of the block, computed over every
// field including the nonce, has at least the block's difficulty of leading
// zeros. The check is self-contained and doesn't consult any chain.
func ValidateBlock(b Block) bool {
	return b.ValidatePOW() == nil
}

// ValidatePOW is the error form of ValidateBlock.
func (b Block) ValidatePOW() error {
	hash := b.Hash()
	if !signature.IsHashSolved(b.Difficulty, hash) {
		return validationErr("block hash %s does not solve difficulty %d", hash, b.Difficulty)
	}

	return nil
}

// ValidateNext checks the block can follow the previous block: the proof of
// work must be solved and the previous hash must point at the previous block.
func (b Block) ValidateNext(previous Block) error {
	if err := b.ValidatePOW(); err != nil {
		return err
	}

	if exp := previous.Hash(); b.PreviousHash != exp {
		return validationErr("previous block hash doesn't match, got %s, exp %s", b.PreviousHash, exp)
	}

	return nil
}

// ValidateChain reports whether every block after genesis solves its own
// proof of work and links to the block before it.
func ValidateChain(blocks []Block) bool {
	return ValidateChainErr(blocks) == nil
}

// ValidateChainErr is the error form of ValidateChain. The chain is walked
// from the last block back to index 1 and the walk stops at the first
// failure. Genesis at index 0 has no previous block to link to.
func ValidateChainErr(blocks []Block) error {
	for i := len(blocks) - 1; i > 0; i-- {
		if err := blocks[i].ValidateNext(blocks[i-1]); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	return nil
}
