// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/hancoin9/hancoin/app/services/node/handlers/v1/private"
	"github.com/hancoin9/hancoin/app/services/node/handlers/v1/public"
	"github.com/hancoin9/hancoin/foundation/events"
	"github.com/hancoin9/hancoin/foundation/hancoin/state"
	"github.com/hancoin9/hancoin/foundation/nameservice"
	"github.com/hancoin9/hancoin/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Hub
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/pending/:account", pbl.Pending)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitWalletTransaction)
	app.Handle(http.MethodPost, version, "/faucet/claim", pbl.FaucetClaim)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/events/:account", pbl.Events)
	app.Handle(http.MethodPost, version, "/social/moment", pbl.Moment)
	app.Handle(http.MethodPost, version, "/social/message", pbl.Message)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/peers", prv.AddPeer)
	app.Handle(http.MethodPost, version, "/node/tx/submit", prv.SubmitNodeTransaction)
	app.Handle(http.MethodGet, version, "/node/tx/list/:account/:from/:to", prv.TxRange)
}
