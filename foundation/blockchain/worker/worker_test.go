package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/database/storage/memory"
	"github.com/ledgerd/powchain/foundation/blockchain/genesis"
	"github.com/ledgerd/powchain/foundation/blockchain/identity"
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
	"github.com/ledgerd/powchain/foundation/blockchain/state"
	"github.com/ledgerd/powchain/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkNodeA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkNodeB = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func Test_SyncAndMine(t *testing.T) {
	nodeA := newState(t, pkNodeA, "nodeA", nil)

	for range 2 {
		if _, err := nodeA.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
	}

	var mu sync.Mutex
	var proposed []database.Block

	respond := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		respond(w, nodeA.RetrieveStatus())
	})
	mux.HandleFunc("/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		respond(w, nodeA.RetrieveChain())
	})
	mux.HandleFunc("/v1/node/tx/list", func(w http.ResponseWriter, r *http.Request) {
		respond(w, nodeA.RetrieveMempool())
	})
	mux.HandleFunc("/v1/node/peers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/node/block/propose", func(w http.ResponseWriter, r *http.Request) {
		var block database.Block
		json.NewDecoder(r.Body).Decode(&block)

		mu.Lock()
		proposed = append(proposed, block)
		mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	peers := peer.NewPeerSet()
	peers.Add(peer.New(strings.TrimPrefix(srv.URL, "http://")))

	nodeB := newState(t, pkNodeB, "nodeB", peers)

	t.Log("Given the need to sync with a peer at startup.")
	{
		wrk := worker.Run(nodeB, worker.Config{PeerUpdateInterval: time.Hour})
		defer nodeB.Shutdown()

		if nodeB.RetrieveChainLength() != 3 || nodeB.RetrieveLatestBlock().Hash() != nodeA.RetrieveLatestBlock().Hash() {
			t.Fatalf("\t%s\tShould adopt the longer chain of the peer, got %d blocks.", failed, nodeB.RetrieveChainLength())
		}
		t.Logf("\t%s\tShould adopt the longer chain of the peer.", success)

		block, err := wrk.MineNow(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine on request: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine on request.", success)

		if block.PreviousHash != nodeA.RetrieveLatestBlock().Hash() || nodeB.RetrieveChainLength() != 4 {
			t.Fatalf("\t%s\tShould extend the adopted chain.", failed)
		}
		t.Logf("\t%s\tShould extend the adopted chain.", success)

		deadline := time.Now().Add(5 * time.Second)
		for {
			mu.Lock()
			n := len(proposed)
			mu.Unlock()

			if n == 1 {
				break
			}

			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould propose the mined block to the peer.", failed)
			}
			time.Sleep(10 * time.Millisecond)
		}

		mu.Lock()
		hash := proposed[0].Hash()
		mu.Unlock()

		if hash != block.Hash() {
			t.Fatalf("\t%s\tShould propose the same block that was mined.", failed)
		}
		t.Logf("\t%s\tShould propose the mined block to the peer.", success)
	}
}

func Test_MineNowAfterShutdown(t *testing.T) {
	st := newState(t, pkNodeA, "nodeA", nil)

	wrk := worker.Run(st, worker.Config{PeerUpdateInterval: time.Hour})
	if err := st.Shutdown(); err != nil {
		t.Fatalf("Should be able to shutdown: %s", err)
	}

	if _, err := wrk.MineNow(context.Background()); !errors.Is(err, worker.ErrShutdown) {
		t.Fatalf("Should not be able to mine after shutdown, got %v.", err)
	}
}

// =============================================================================

func newState(t *testing.T, hexKey string, host string, peers *peer.PeerSet) *state.State {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	serializer, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create storage: %v", failed, err)
	}

	st, err := state.New(state.Config{
		Identity:   identity.FromPrivateKey(pk),
		Host:       host,
		Genesis:    genesis.Genesis{Difficulty: 1, MiningReward: 10},
		Serializer: serializer,
		KnownPeers: peers,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create the state: %v", failed, err)
	}

	return st
}
