// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ledgerd/powchain/business/web/errs"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
	"github.com/ledgerd/powchain/foundation/blockchain/state"
	"github.com/ledgerd/powchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitNodeTransaction adds new node transactions to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	// Decode the JSON in the post call into a transaction.
	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	// Ask the state package to add this transaction to the mempool. A
	// peer sharing something we already have is not a failure.
	h.Log.Infow("add tran", "traceid", web.GetTraceID(ctx), "tx", tx)
	if err := h.State.UpsertNodeTransaction(tx); err != nil {
		if database.IsRejected(err) {
			return errs.NewTrusted(err, http.StatusNotAcceptable)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	// Decode the JSON in the post call into a block.
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {
		switch {
		case errors.Is(err, database.ErrChainForked):
			return errs.NewTrusted(err, http.StatusConflict)
		case database.IsRejected(err):
			return errs.NewTrusted(fmt.Errorf("block not accepted: %w", err), http.StatusNotAcceptable)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the entire chain for consensus.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// AddPeer registers the calling node as a known peer.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	pr = peer.New(pr.Host)
	if pr.Host == "" {
		return errs.NewTrusted(errors.New("peer host is required"), http.StatusBadRequest)
	}

	if h.State.AddKnownPeer(pr) {
		h.Log.Infow("add peer", "traceid", web.GetTraceID(ctx), "host", pr.Host)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	first := from
	if from == state.QueryLatest {
		first = uint64(h.State.RetrieveChainLength() - len(blocks))
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(first+uint64(i), block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}
