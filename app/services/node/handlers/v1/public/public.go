// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	v1 "github.com/hancoin9/hancoin/business/web/v1"
	"github.com/hancoin9/hancoin/foundation/events"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/state"
	"github.com/hancoin9/hancoin/foundation/nameservice"
	"github.com/hancoin9/hancoin/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Hub
}

// SubmitWalletTransaction accepts a signed transaction from a wallet.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value)
	status, err := h.State.SubmitWalletTransaction(signedTx)
	if err != nil {
		return v1.NewRequestError(err, submitErrorStatus(err))
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: string(status),
	}

	code := http.StatusOK
	if status == state.StatusPending {
		code = http.StatusAccepted
	}

	return web.Respond(ctx, w, resp, code)
}

// FaucetClaim accepts a faucet transaction signed by the claiming account.
func (h Handlers) FaucetClaim(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("faucet claim", "traceid", v.TraceID, "to", signedTx.ToID, "value", signedTx.Value)
	now := time.Now().UTC()

	status, err := h.State.SubmitFaucetClaim(signedTx, now)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrRateLimited):
			resp := struct {
				Error     string `json:"error"`
				RetryInMS int64  `json:"retry_in_ms"`
			}{
				Error:     err.Error(),
				RetryInMS: h.State.FaucetWait(signedTx.ToID, now).Milliseconds(),
			}
			return web.Respond(ctx, w, resp, http.StatusTooManyRequests)

		case errors.Is(err, database.ErrSupplyExhausted):
			return v1.NewRequestError(err, http.StatusConflict)

		default:
			return v1.NewRequestError(err, submitErrorStatus(err))
		}
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: string(status),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the balances and recent activity for one account, or the
// balances for all accounts when none is specified.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var acts []info
	switch account {
	case "":
		for accountID, act := range h.State.RetrieveAccounts() {
			acts = append(acts, info{
				Account:     accountID,
				Name:        h.NS.Lookup(accountID),
				Balance:     act.Balance,
				Nonce:       act.Nonce,
				FaucetNonce: act.FaucetNonce,
			})
		}

	default:
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		act, history, err := h.State.QueryAccountWithHistory(accountID)
		if err != nil {
			if errors.Is(err, database.ErrAccountNotFound) {
				return v1.NewRequestError(err, http.StatusNotFound)
			}
			return err
		}

		acts = append(acts, info{
			Account:     act.AccountID,
			Name:        h.NS.Lookup(act.AccountID),
			Balance:     act.Balance,
			Nonce:       act.Nonce,
			FaucetNonce: act.FaucetNonce,
			History:     h.toTxViews(history),
		})
	}

	ai := actInfo{
		Issued:   h.State.RetrieveIssued(),
		Accounts: acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Pending returns the transactions held for an account waiting on a nonce gap.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := database.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	held := h.State.QueryPending(accountID)
	if len(held) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, h.toTxViews(held), http.StatusOK)
}

// Moment accepts a public feed post and fans it out to every live connection.
func (h Handlers) Moment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var moment state.Moment
	if err := web.Decode(r, &moment); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.State.RelayMoment(moment)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "relayed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Message accepts a private payload and relays it to the recipient's live
// connections. The payload is opaque to the node.
func (h Handlers) Message(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var msg state.DirectMessage
	if err := web.Decode(r, &msg); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.State.RelayMessage(msg)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "relayed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// toTxViews converts log transactions into the public response shape.
func (h Handlers) toTxViews(txs []database.LogTx) []tx {
	views := make([]tx, len(txs))
	for i, tran := range txs {
		views[i] = tx{
			FromAccount: tran.FromID,
			FromName:    h.NS.Lookup(tran.FromID),
			To:          tran.ToID,
			ToName:      h.NS.Lookup(tran.ToID),
			Nonce:       tran.Nonce,
			Value:       tran.Value,
			TimeStamp:   tran.TimeStamp,
			Hash:        tran.Hash,
			Sig:         tran.SignatureString(),
		}
	}
	return views
}

// submitErrorStatus maps validation failures to response codes.
func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNonceConflict):
		return http.StatusConflict
	case errors.Is(err, database.ErrStorageIO):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
