package state

import (
	"encoding/json"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
)

// Set of push event types delivered over the live subscription channel.
const (
	EventBalanceChanged = "balance_changed"
	EventTxSent         = "tx_sent"
	EventTxReceived     = "tx_received"
	EventMoment         = "moment"
	EventMessage        = "message"
)

// balanceEvent notifies a client its account state changed.
type balanceEvent struct {
	Type      string             `json:"type"`
	AccountID database.AccountID `json:"account_id"`
	Balance   uint64             `json:"balance"`
	Nonce     uint64             `json:"nonce"`
}

// txEvent notifies a client about a transaction touching its account.
type txEvent struct {
	Type string         `json:"type"`
	Tx   database.LogTx `json:"tx"`
}

// publishTxEvents pushes the state changes caused by an applied transaction
// to the affected accounts' live connections.
func (s *State) publishTxEvents(tx database.LogTx, from database.Account, to database.Account) {
	if s.hub == nil {
		return
	}

	if !tx.IsFaucet() {
		s.hub.SendTo(string(tx.FromID), marshalEvent(txEvent{Type: EventTxSent, Tx: tx}))
		s.hub.SendTo(string(tx.FromID), marshalEvent(balanceEvent{
			Type:      EventBalanceChanged,
			AccountID: from.AccountID,
			Balance:   from.Balance,
			Nonce:     from.Nonce,
		}))
	}

	s.hub.SendTo(string(tx.ToID), marshalEvent(txEvent{Type: EventTxReceived, Tx: tx}))
	s.hub.SendTo(string(tx.ToID), marshalEvent(balanceEvent{
		Type:      EventBalanceChanged,
		AccountID: to.AccountID,
		Balance:   to.Balance,
		Nonce:     to.Nonce,
	}))
}

// =============================================================================

// Moment is a public feed post. The core relays it unchanged; the payload
// is opaque to ledger consistency and nothing beyond size is verified.
type Moment struct {
	From      string `json:"from" validate:"required"`
	Text      string `json:"text" validate:"required,max=1024"`
	TimeStamp uint64 `json:"timestamp"`
	Signature string `json:"signature"`
}

// DirectMessage is a private chat payload relayed to a single account.
type DirectMessage struct {
	From      string `json:"from" validate:"required"`
	To        string `json:"to" validate:"required"`
	Payload   string `json:"payload" validate:"required,max=4096"`
	TimeStamp uint64 `json:"timestamp"`
}

// RelayMoment fans a feed post out to every live connection.
func (s *State) RelayMoment(moment Moment) {
	if s.hub == nil {
		return
	}

	event := struct {
		Type string `json:"type"`
		Moment
	}{Type: EventMoment, Moment: moment}

	s.hub.Broadcast(marshalEvent(event))
}

// RelayMessage delivers a private payload to the recipient's connections.
func (s *State) RelayMessage(msg DirectMessage) {
	if s.hub == nil {
		return
	}

	event := struct {
		Type string `json:"type"`
		DirectMessage
	}{Type: EventMessage, DirectMessage: msg}

	s.hub.SendTo(msg.To, marshalEvent(event))
}

// =============================================================================

// marshalEvent renders the event for the wire. Marshaling these fixed
// shapes can't fail in practice; an empty object is the safe fallback.
func marshalEvent(event any) string {
	data, err := json.Marshal(event)
	if err != nil {
		return "{}"
	}
	return string(data)
}
