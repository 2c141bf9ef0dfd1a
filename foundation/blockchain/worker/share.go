package worker

import (
	"errors"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/worker/client"
)

// shareTxOperations handles sharing new transactions.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				w.runShareTxOperation(tx)
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// runShareTxOperation shares a new transaction with the known peers.
// Delivery failures are logged and never retried.
func (w *Worker) runShareTxOperation(tx database.Tx) {
	w.evHandler("worker: runShareTxOperation: started")
	defer w.evHandler("worker: runShareTxOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		ctx, cancel := w.requestContext()
		err := w.client.SubmitTx(ctx, pr, tx)
		cancel()

		if err != nil {
			w.evHandler("worker: runShareTxOperation: %s: WARNING: %s", pr.Host, err)
		}
	}
}

// =============================================================================

// shareBlockOperations handles proposing mined blocks.
func (w *Worker) shareBlockOperations() {
	w.evHandler("worker: shareBlockOperations: G started")
	defer w.evHandler("worker: shareBlockOperations: G completed")

	for {
		select {
		case block := <-w.blockSharing:
			if !w.isShutdown() {
				w.runShareBlockOperation(block)
			}
		case <-w.shut:
			w.evHandler("worker: shareBlockOperations: received shut signal")
			return
		}
	}
}

// runShareBlockOperation proposes the new block to the known peers. A peer
// that reports a conflict resyncs from this node on its own.
func (w *Worker) runShareBlockOperation(block database.Block) {
	w.evHandler("worker: runShareBlockOperation: started: blk[%s]", block.Hash())
	defer w.evHandler("worker: runShareBlockOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		ctx, cancel := w.requestContext()
		err := w.client.ProposeBlock(ctx, pr, block)
		cancel()

		switch {
		case errors.Is(err, client.ErrConflict):
			w.evHandler("worker: runShareBlockOperation: %s: peer out of sync: %s", pr.Host, err)
		case err != nil:
			w.evHandler("worker: runShareBlockOperation: %s: WARNING: %s", pr.Host, err)
		default:
			w.evHandler("worker: runShareBlockOperation: sent to peer[%s]", pr.Host)
		}
	}
}
