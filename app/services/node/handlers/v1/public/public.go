// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ledgerd/powchain/business/web/errs"
	"github.com/ledgerd/powchain/foundation/blockchain/accounts"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/state"
	"github.com/ledgerd/powchain/foundation/blockchain/worker"
	"github.com/ledgerd/powchain/foundation/events"
	"github.com/ledgerd/powchain/foundation/nameservice"
	"github.com/ledgerd/powchain/foundation/web"
	"go.uber.org/zap"
)

// Miner runs a mining operation and waits for the block.
type Miner interface {
	MineNow(ctx context.Context) (database.Block, error)
}

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Miner Miner
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// NewTransaction creates a transfer from the node's account, signs it and
// adds it to the mempool.
func (h Handlers) NewTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("new tran", "traceid", web.GetTraceID(ctx), "to", ntx.Recipient, "amount", ntx.Amount)

	tx, err := h.State.CreateTransaction(ntx.Recipient, ntx.Amount)
	if err != nil {
		return rejected(err)
	}

	return web.Respond(ctx, w, tx, http.StatusCreated)
}

// SubmitWalletTransaction adds a signed transaction from a wallet to the
// mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", web.GetTraceID(ctx), "tx", tx)

	if err := h.State.UpsertWalletTransaction(tx); err != nil {
		return rejected(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := database.AccountID(web.Param(r, "account"))

	trans := []database.Tx{}
	for _, tx := range h.State.RetrieveMempool() {
		if acct != "" && acct != tx.Sender && acct != tx.Recipient {
			continue
		}
		trans = append(trans, tx)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Mine forges a block out of the pending transactions.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.QueryMempoolLength() == 0 {
		return errs.NewTrusted(errors.New("no pending transactions"), http.StatusBadRequest)
	}

	blk, err := h.Miner.MineNow(ctx)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrShutdown):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		case errors.Is(err, state.ErrStaleBlock), errors.Is(err, context.Canceled):
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return err
	}

	resp := mined{
		Message: "new block forged",
		Hash:    blk.Hash(),
		Block:   toBlock(uint64(h.State.RetrieveChainLength()-1), blk),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain and whether it is valid.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveChain()

	resp := chain{
		Chain:   blocks,
		Length:  len(blocks),
		IsValid: database.ValidateChain(blocks),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the current balances for all accounts, or the specified
// account.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acts := []info{}

	switch account := web.Param(r, "account"); account {
	case "":
		for acct, blkInfo := range h.State.RetrieveAccounts() {
			acts = append(acts, h.toInfo(acct, blkInfo))
		}
		sort.Slice(acts, func(i, j int) bool { return acts[i].Account < acts[j].Account })

	default:
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		blkInfo, err := h.State.QueryAccount(accountID)
		if err != nil {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		acts = append(acts, h.toInfo(accountID, blkInfo))
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByAccount returns the blocks holding a transaction for the account,
// or every block when no account is specified.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if account := web.Param(r, "account"); account != "" {
		var err error
		if accountID, err = database.ToAccountID(account); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	var blocks []block
	for i, blk := range h.State.RetrieveChain() {
		if accountID != "" && !involves(blk, accountID) {
			continue
		}
		blocks = append(blocks, toBlock(uint64(i), blk))
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// =============================================================================

// rejected maps an engine rejection to a bad request. Anything else is an
// internal error.
func rejected(err error) error {
	if database.IsRejected(err) {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	return err
}

func involves(blk database.Block, accountID database.AccountID) bool {
	for _, tx := range blk.Transactions {
		if tx.Sender == accountID || tx.Recipient == accountID {
			return true
		}
	}
	return false
}

func (h Handlers) toInfo(account database.AccountID, blkInfo accounts.Info) info {
	return info{
		Account:  account,
		Name:     h.NS.Lookup(account),
		Balance:  blkInfo.Balance,
		Received: blkInfo.Received,
		Sent:     blkInfo.Sent,
		Mined:    blkInfo.Mined,
		Trans:    blkInfo.Trans,
	}
}
