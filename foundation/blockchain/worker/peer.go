package worker

import (
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
)

// peerOperations handles finding new peers and keeping the chain in sync.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
				w.Sync()
			}
		case <-w.resync:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		ctx, cancel := w.requestContext()
		peerStatus, err := w.client.Status(ctx, pr)
		cancel()

		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			w.state.RemoveKnownPeer(pr)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)
	}

	// Let the known peers know this node is available to chat.
	self := peer.New(w.state.RetrieveHost())
	for _, pr := range w.state.RetrieveKnownPeers() {
		ctx, cancel := w.requestContext()
		err := w.client.AddPeer(ctx, pr, self)
		cancel()

		if err != nil {
			w.evHandler("worker: runPeersOperation: addPeer: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: addNewPeers: adding peer-node %s", pr.Host)
		}
	}
}
