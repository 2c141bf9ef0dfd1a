package worker

import (
	"errors"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// Sync updates the peer list, mempool and chain. Every peer holding a longer
// chain is asked for it and the longest valid chain rule decides whether it
// replaces the local chain.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		ctx, cancel := w.requestContext()
		peerStatus, err := w.client.Status(ctx, pr)
		cancel()

		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Retrieve the mempool from the peer.
		ctx, cancel = w.requestContext()
		pool, err := w.client.Mempool(ctx, pr)
		cancel()

		if err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
		}

		for _, tx := range pool {
			if err := w.state.UpsertNodeTransaction(tx); err != nil && !database.IsRejected(err) {
				w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
			}
		}

		// If this peer has a longer chain, ask for it.
		if peerStatus.Length <= uint64(w.state.RetrieveChainLength()) {
			continue
		}

		w.evHandler("worker: sync: retrievePeerChain: %s: length[%d]", pr.Host, peerStatus.Length)

		ctx, cancel = w.requestContext()
		chain, err := w.client.Chain(ctx, pr)
		cancel()

		if err != nil {
			w.evHandler("worker: sync: retrievePeerChain: %s: ERROR: %s", pr.Host, err)
			continue
		}

		replaced, err := w.state.ReplaceChain(chain)
		switch {
		case errors.Is(err, database.ErrValidation):
			w.evHandler("worker: sync: replaceChain: %s: rejected: %s", pr.Host, err)
		case err != nil:
			w.evHandler("worker: sync: replaceChain: %s: ERROR: %s", pr.Host, err)
		case replaced:
			w.evHandler("worker: sync: replaceChain: %s: adopted length[%d]", pr.Host, len(chain))
		}
	}
}
