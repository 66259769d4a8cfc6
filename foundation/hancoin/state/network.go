package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/peer"
)

// The peer protocol runs over the private API. Transport framing is plain
// HTTP request/response; the synchronizer only needs send, receive and the
// peer list.
const baseURL = "http://%s/v1/node"

// NetRequestPeerStatus asks a peer for its digest and known peer list.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	return ps, nil
}

// NetSendTxToPeers floods the transaction to the known peers, skipping the
// origin so a gossiped transaction doesn't bounce straight back.
func (s *State) NetSendTxToPeers(tx database.LogTx, originHost string) {
	s.evHandler("state: NetSendTxToPeers: started: tx[%s]", tx)
	defer s.evHandler("state: NetSendTxToPeers: completed: tx[%s]", tx)

	msg := gossipTx{Tx: tx, OriginHost: s.host}

	for _, pr := range s.RetrieveKnownPeers() {
		if pr.Match(originHost) {
			continue
		}

		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))
		if err := send(http.MethodPost, url, msg, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s: %s", pr.Host, err)
		}
	}
}

// NetRequestTxRange asks the peer for the account's transactions with
// nonces in [fromNonce, toNonce] and feeds them through the accept path in
// nonce order.
func (s *State) NetRequestTxRange(pr peer.Peer, accountID database.AccountID, fromNonce uint64, toNonce uint64, faucet bool) error {
	s.evHandler("state: NetRequestTxRange: started: %s: account[%s] range[%d,%d]", pr.Host, accountID, fromNonce, toNonce)
	defer s.evHandler("state: NetRequestTxRange: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/tx/list/%s/%d/%d?faucet=%t", fmt.Sprintf(baseURL, pr.Host), accountID, fromNonce, toNonce, faucet)

	var txs []database.LogTx
	if err := send(http.MethodGet, url, nil, &txs); err != nil {
		return err
	}

	for _, tx := range txs {
		if _, err := s.SubmitNodeTransaction(tx, pr.Host); err != nil {
			s.evHandler("state: NetRequestTxRange: tx[%s]: WARNING: %s", tx, err)
		}
	}

	return nil
}

// NetAnnounceSelf lets the peer know this node is available.
func (s *State) NetAnnounceSelf(pr peer.Peer) error {
	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	announce := struct {
		Host string `json:"host"`
	}{Host: s.host}

	return send(http.MethodPost, url, announce, nil)
}

// =============================================================================

// gossipTx is the wire form of a flooded transaction. The origin lets the
// receiver exclude the sender from its own rebroadcast.
type gossipTx struct {
	Tx         database.LogTx `json:"tx"`
	OriginHost string         `json:"origin_host"`
}

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	var client http.Client
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
