// Package worker implements mining, peer updates, and transaction and block
// sharing for the blockchain.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/state"
	"github.com/ledgerd/powchain/foundation/blockchain/worker/client"
)

// Default values used when the configuration doesn't set them.
const (
	defaultPeerUpdateInterval = time.Minute
	defaultRequestTimeout     = 5 * time.Second
)

// maxShareRequests represents the max number of pending network share
// requests that can be outstanding before share requests are dropped. To keep
// this simple, a buffered channel of this arbitrary number is being used. If
// the channel does become full, requests for new transactions or blocks to be
// shared will not be accepted.
const maxShareRequests = 100

// =============================================================================

// Config represents the settings of the worker.
type Config struct {
	Client             *client.Client
	PeerUpdateInterval time.Duration
	RequestTimeout     time.Duration
	EvHandler          state.EventHandler
}

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state          *state.State
	client         *client.Client
	requestTimeout time.Duration
	wg             sync.WaitGroup
	ticker         *time.Ticker
	shut           chan struct{}
	startMining    chan bool
	mineRequests   chan chan mineResult
	cancelMining   chan bool
	resync         chan bool
	txSharing      chan database.Tx
	blockSharing   chan database.Block
	evHandler      state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config) *Worker {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if cfg.PeerUpdateInterval <= 0 {
		cfg.PeerUpdateInterval = defaultPeerUpdateInterval
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.Client == nil {
		cfg.Client = client.New(cfg.RequestTimeout)
	}

	w := Worker{
		state:          st,
		client:         cfg.Client,
		requestTimeout: cfg.RequestTimeout,
		ticker:         time.NewTicker(cfg.PeerUpdateInterval),
		shut:           make(chan struct{}),
		startMining:    make(chan bool, 1),
		mineRequests:   make(chan chan mineResult),
		cancelMining:   make(chan bool, 1),
		resync:         make(chan bool, 1),
		txSharing:      make(chan database.Tx, maxShareRequests),
		blockSharing:   make(chan database.Block, maxShareRequests),
		evHandler:      ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.miningOperations,
		w.shareTxOperations,
		w.shareBlockOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// SignalShareTx signals a share transaction operation. If
// maxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// SignalShareBlock signals a share block operation. If
// maxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareBlock(block database.Block) {
	select {
	case w.blockSharing <- block:
		w.evHandler("worker: SignalShareBlock: share Block signaled")
	default:
		w.evHandler("worker: SignalShareBlock: queue full, blocks won't be shared.")
	}
}

// SignalResync signals the peer operation to resync with the known peers.
func (w *Worker) SignalResync() {
	select {
	case w.resync <- true:
	default:
	}
	w.evHandler("worker: SignalResync: resync signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// requestContext bounds a network request to a peer.
func (w *Worker) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), w.requestTimeout)
}
