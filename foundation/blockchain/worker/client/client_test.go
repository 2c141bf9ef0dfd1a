package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
	"github.com/ledgerd/powchain/foundation/blockchain/worker/client"
)

func Test_Client(t *testing.T) {
	var proposed database.Block
	var added peer.Peer

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(peer.PeerStatus{LatestBlockHash: "abc", Length: 3, KnownPeers: []peer.Peer{peer.New("host9")}})
	})
	mux.HandleFunc("/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]database.Block{database.Genesis()})
	})
	mux.HandleFunc("/v1/node/block/propose", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		json.NewDecoder(r.Body).Decode(&proposed)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"blockchain forked, start resync"}`))
	})
	mux.HandleFunc("/v1/node/peers", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&added)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/node/tx/submit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid or duplicate, discarded"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	pr := peer.New(strings.TrimPrefix(srv.URL, "http://"))
	cln := client.New(5 * time.Second)
	ctx := context.Background()

	status, err := cln.Status(ctx, pr)
	if err != nil {
		t.Fatalf("Should be able to get the status: %s", err)
	}

	if status.Length != 3 || len(status.KnownPeers) != 1 || status.KnownPeers[0].Host != "host9" {
		t.Fatalf("Should get back the right status: %+v", status)
	}

	chain, err := cln.Chain(ctx, pr)
	if err != nil {
		t.Fatalf("Should be able to get the chain: %s", err)
	}

	if len(chain) != 1 || !chain[0].IsGenesis() {
		t.Fatalf("Should get back the genesis block.")
	}

	block := database.NewBlock(nil, database.Genesis().Hash(), 5, 0)
	if err := cln.ProposeBlock(ctx, pr, block); !errors.Is(err, client.ErrConflict) {
		t.Fatalf("Should get a conflict error, got %v.", err)
	}

	if proposed.Hash() != block.Hash() {
		t.Fatalf("Should send the block unchanged.")
	}

	if err := cln.AddPeer(ctx, pr, peer.New("localhost:9080")); err != nil {
		t.Fatalf("Should be able to add a peer: %s", err)
	}

	if added.Host != "localhost:9080" {
		t.Fatalf("Should send this node's host, got %q.", added.Host)
	}

	err = cln.SubmitTx(ctx, pr, database.Tx{})
	if err == nil || !strings.Contains(err.Error(), "invalid or duplicate") {
		t.Fatalf("Should get back the error from the peer, got %v.", err)
	}
}
