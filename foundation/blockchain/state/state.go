// Package state is the core API for the blockchain and implements all the
// business rules and processing.
//
// Every mutation of the chain and the mempool is serialized through a single
// lock held by State. Mining runs without the lock and only appends its
// block if the chain didn't move underneath it.
//
// Forks are resolved with the longest valid chain rule: a strictly longer
// chain that passes validation replaces the local chain, ties keep the
// local chain. A peer with more hashing power than the rest of the network
// can use this rule to rewrite history arbitrarily far back. That is a
// property of the rule, not a defect of this implementation.
package state

import (
	"sync"

	"github.com/ledgerd/powchain/foundation/blockchain/accounts"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/genesis"
	"github.com/ledgerd/powchain/foundation/blockchain/identity"
	"github.com/ledgerd/powchain/foundation/blockchain/mempool"
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
// The state never performs network calls, it only signals the worker.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
	SignalShareBlock(block database.Block)
	SignalResync()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Identity   *identity.Identity
	Host       string
	Genesis    genesis.Genesis
	Serializer database.Serializer
	KnownPeers *peer.PeerSet
	AutoMine   bool
	EvHandler  EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	identity  *identity.Identity
	host      string
	autoMine  bool
	evHandler EventHandler

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	db         *database.Database
	accounts   *accounts.Accounts

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Access the storage for the blockchain. The genesis block is written
	// when the storage is empty.
	db, err := database.New(cfg.Serializer, ev)
	if err != nil {
		return nil, err
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		identity:  cfg.Identity,
		host:      cfg.Host,
		autoMine:  cfg.AutoMine,
		evHandler: ev,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		db:         db,
		accounts:   accounts.FromBlocks(db.Copy()),

		Worker: nopWorker{},
	}

	// The Worker is set to a no-op value here. The call to worker.Run will
	// assign itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	// Make sure the database file is properly closed.
	return s.db.Close()
}

// =============================================================================

// nopWorker is used until a worker is registered.
type nopWorker struct{}

func (nopWorker) Shutdown() {}
func (nopWorker) SignalStartMining() {}
func (nopWorker) SignalCancelMining() {}
func (nopWorker) SignalShareTx(database.Tx) {}
func (nopWorker) SignalShareBlock(database.Block) {}
func (nopWorker) SignalResync() {}
