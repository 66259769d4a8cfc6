// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	v1 "github.com/hancoin9/hancoin/business/web/v1"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/peer"
	"github.com/hancoin9/hancoin/foundation/hancoin/state"
	"github.com/hancoin9/hancoin/foundation/nameservice"
	"github.com/hancoin9/hancoin/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// gossipTx is the wire form used between peers: the transaction plus the
// host it was last forwarded by.
type gossipTx struct {
	Tx         database.LogTx `json:"tx"`
	OriginHost string         `json:"origin_host"`
}

// SubmitNodeTransaction accepts a transaction forwarded by a peer node.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var gtx gossipTx
	if err := web.Decode(r, &gtx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add node tran", "traceid", v.TraceID, "from:nonce", gtx.Tx.SignedTx, "to", gtx.Tx.ToID, "value", gtx.Tx.Value, "origin", gtx.OriginHost)
	status, err := h.State.SubmitNodeTransaction(gtx.Tx, gtx.OriginHost)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: string(status),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current digest and known peers of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := peer.PeerStatus{
		Digest:     h.State.RetrieveDigest(),
		KnownPeers: h.State.RetrieveKnownPeers(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// AddPeer records the announcing node in the known peer list.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if h.State.AddKnownPeer(pr) {
		h.Log.Infow("add peer", "traceid", v.TraceID, "host", pr.Host)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "peer added",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// TxRange returns the applied transactions for an account whose nonces fall
// inside the specified from/to values. The faucet query parameter selects
// the faucet sequence instead of the transfer sequence.
func (h Handlers) TxRange(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := database.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	from, err := strconv.ParseUint(web.Param(r, "from"), 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(web.Param(r, "to"), 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	faucet := r.URL.Query().Get("faucet") == "true"

	txs, err := h.State.QueryTxRange(accountID, from, to, faucet)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}
