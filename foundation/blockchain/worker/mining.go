package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/state"
)

// ErrShutdown is returned when a mining request arrives after shutdown.
var ErrShutdown = errors.New("worker is shutting down")

// mineResult carries the outcome of a requested mining operation.
type mineResult struct {
	block database.Block
	err   error
}

// =============================================================================

// MineNow runs a mining operation on the mining G and waits for the
// block. The mempool may be empty, the block then holds only the coinbase.
func (w *Worker) MineNow(ctx context.Context) (database.Block, error) {
	result := make(chan mineResult, 1)

	select {
	case w.mineRequests <- result:
	case <-w.shut:
		return database.Block{}, ErrShutdown
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}

	select {
	case res := <-result:
		return res.block, res.err
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}
}

// =============================================================================

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runSignaledMining()
			}
		case result := <-w.mineRequests:
			block, err := w.runMiningOperation()
			result <- mineResult{block: block, err: err}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runSignaledMining mines the mempool when it holds transactions.
func (w *Worker) runSignaledMining() {

	// Make sure there are transactions in the mempool.
	length := w.state.QueryMempoolLength()
	if length == 0 {
		w.evHandler("worker: runSignaledMining: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// After running a mining operation, check if a new operation should
	// be signaled again.
	defer func() {
		length := w.state.QueryMempoolLength()
		if length > 0 && w.state.IsAutoMining() {
			w.evHandler("worker: runSignaledMining: MINING: signal new mining operation: Txs[%d]", length)
			w.SignalStartMining()
		}
	}()

	w.runMiningOperation()
}

// runMiningOperation takes all the transactions from the mempool and writes a
// new block to the database.
func (w *Worker) runMiningOperation() (database.Block, error) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// This G exists to cancel the mining operation.
	done := make(chan struct{})
	go func() {
		defer close(done)

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	t := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	duration := time.Since(t)

	// Release the cancel G and wait for it to terminate.
	cancel()
	<-done

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		case errors.Is(err, state.ErrStaleBlock):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: %s", err)
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return database.Block{}, err
	}

	w.evHandler("worker: runMiningOperation: MINING: SOLVED: blk[%s]", block.Hash())

	return block, nil
}
