package database

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ledgerd/powchain/foundation/blockchain/signature"
)

// ErrNonceExhausted is returned when every nonce value was tried without
// solving the puzzle. With a 64 bit nonce this is not a practical concern for
// any difficulty a node would run with.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Signer     Signer
	Difficulty uint
	Reward     uint64
	PrevBlock  Block
	Trans      []Tx
	EvHandler  func(v string, args ...any)
}

// NewCandidate constructs the block to be mined. A signed coinbase
// transaction paying the reward to the signer is placed first, followed by
// the specified transactions. The block and coinbase timestamps are kept
// past the previous block's so the coinbase signature is unique in the
// chain.
func NewCandidate(args POWArgs) (Block, error) {
	miner := AccountID(args.Signer.Address())
	timestamp := max(time.Now().UnixMilli(), args.PrevBlock.Timestamp+1)

	coinbase, err := NewTxAt(miner, miner, args.Reward, true, timestamp).Sign(args.Signer)
	if err != nil {
		return Block{}, err
	}

	trans := make([]Tx, 0, len(args.Trans)+1)
	trans = append(trans, coinbase)
	trans = append(trans, args.Trans...)

	return NewBlock(trans, args.PrevBlock.Hash(), timestamp, args.Difficulty), nil
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	nb, err := NewCandidate(args)
	if err != nil {
		return Block{}, err
	}

	if err := ProofOfWork(ctx, &nb, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// ProofOfWork does the work of mining to find a valid hash for a specified
// block. The nonce starts at zero and is incremented until the hash has
// enough leading zeros. Pointer semantics are being used since a nonce is
// being discovered. When the context is cancelled, the block must be
// discarded.
func ProofOfWork(ctx context.Context, b *Block, ev func(v string, args ...any)) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: ProofOfWork: MINING: started: difficulty[%d]: trans[%d]", b.Difficulty, len(b.Transactions))
	defer ev("database: ProofOfWork: MINING: completed")

	var attempts uint64
	for b.Nonce = 0; ; b.Nonce++ {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: ProofOfWork: MINING: attempts[%d]", attempts)
		}

		// Did we get cancelled by the caller.
		if ctx.Err() != nil {
			ev("database: ProofOfWork: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if signature.IsHashSolved(b.Difficulty, hash) {
			ev("database: ProofOfWork: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PreviousHash, hash, attempts)
			return nil
		}

		if b.Nonce == math.MaxUint64 {
			return ErrNonceExhausted
		}
	}
}
