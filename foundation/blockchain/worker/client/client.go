// Package client provides the http transport a node uses to talk to the
// private api of its peers.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
)

// baseURL is the root of the private api of a node.
const baseURL = "http://%s/v1/node"

// ErrConflict is returned when the peer reports the payload doesn't link to
// its chain.
var ErrConflict = errors.New("peer chain conflict")

// errorResponse is the form used by a node for reporting an error.
type errorResponse struct {
	Error string `json:"error"`
}

// =============================================================================

// Client sends and requests data from peer nodes.
type Client struct {
	client *resty.Client
}

// New constructs a client where every request is bounded by the timeout.
func New(timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
	}
}

// SubmitTx shares a transaction with the peer.
func (c *Client) SubmitTx(ctx context.Context, pr peer.Peer, tx database.Tx) error {
	return c.send(ctx, http.MethodPost, nodeURL(pr, "/tx/submit"), tx, nil)
}

// ProposeBlock sends a newly mined block to the peer.
func (c *Client) ProposeBlock(ctx context.Context, pr peer.Peer, block database.Block) error {
	return c.send(ctx, http.MethodPost, nodeURL(pr, "/block/propose"), block, nil)
}

// Chain retrieves the entire chain held by the peer.
func (c *Client) Chain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	var blocks []database.Block
	if err := c.send(ctx, http.MethodGet, nodeURL(pr, "/chain"), nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// Mempool retrieves the pending transactions held by the peer.
func (c *Client) Mempool(ctx context.Context, pr peer.Peer) ([]database.Tx, error) {
	var txs []database.Tx
	if err := c.send(ctx, http.MethodGet, nodeURL(pr, "/tx/list"), nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// Status retrieves the status of the peer.
func (c *Client) Status(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	var status peer.PeerStatus
	if err := c.send(ctx, http.MethodGet, nodeURL(pr, "/status"), nil, &status); err != nil {
		return peer.PeerStatus{}, err
	}

	return status, nil
}

// AddPeer tells the peer this node exists.
func (c *Client) AddPeer(ctx context.Context, pr peer.Peer, self peer.Peer) error {
	return c.send(ctx, http.MethodPost, nodeURL(pr, "/peers"), self, nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func (c *Client) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var errResp errorResponse

	req := c.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetError(&errResp)

	if dataSend != nil {
		req.SetBody(dataSend)
	}

	if dataRecv != nil {
		req.SetResult(dataRecv)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode() == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, errResp.Error)

	case resp.IsError():
		if errResp.Error == "" {
			errResp.Error = resp.Status()
		}
		return fmt.Errorf("%s %s: %s", method, url, errResp.Error)
	}

	return nil
}

// nodeURL forms the private api url for the peer.
func nodeURL(pr peer.Peer, path string) string {
	return fmt.Sprintf(baseURL, pr.Host) + path
}
