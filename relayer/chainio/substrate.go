package chainio

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/most-network/bridge/core"
	"github.com/most-network/bridge/relayer"
)

// Chain A is reached the way the relayer reaches any chain without a
// mature native Go SDK: a plain JSON-RPC-over-websocket client.

// rpcRequest and rpcResponse are the minimal JSON-RPC 2.0 envelope this
// adapter needs: a subscription call to watch new bridge events, and a
// request/response call to submit receive_request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	// Method and RawParams carry a subscription notification; only
	// set on messages that aren't replies to a request.
	Method string `json:"method"`
	RawParams json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// crosschainTransferRequestNotification mirrors the bridge's own event
// shape as delivered over the node's event subscription.
type crosschainTransferRequestNotification struct {
	Block        uint64 `json:"block"`
	CommitteeID  uint64 `json:"committee_id"`
	DestToken    string `json:"dest_token_address"`
	Amount       string `json:"amount"`
	DestReceiver string `json:"dest_receiver_address"`
	Nonce        string `json:"nonce"`
}

// SubstrateChain is the concrete Chain A adapter: a websocket
// JSON-RPC client that subscribes to the bridge contract's event feed
// and submits receive_request calls signed by the relayer's sudo/signer
// seed, following the same watcher/submitter shape as EthereumChain.
type SubstrateChain struct {
	url          string
	contractAddr string
	signerSeed   string

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64

	pending map[uint64]chan rpcResponse
	pmu     sync.Mutex

	smu  sync.Mutex
	subs []chan crosschainTransferRequestNotification

	log *logrus.Entry
}

// NewSubstrateChain dials wssURL and returns an adapter for the bridge
// contract at contractAddr, authorizing outgoing calls with signerSeed.
func NewSubstrateChain(ctx context.Context, wssURL, contractAddr, signerSeed string, log *logrus.Entry) (*SubstrateChain, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial azero node: %w", err)
	}
	c := &SubstrateChain{
		url:          wssURL,
		contractAddr: contractAddr,
		signerSeed:   signerSeed,
		conn:         conn,
		pending:      make(map[uint64]chan rpcResponse),
		log:          log.WithField("chain", "azero"),
	}
	go c.readLoop()
	return c, nil
}

func (c *SubstrateChain) ChainName() string { return "azero" }

// readLoop demultiplexes inbound websocket frames: request replies are
// routed to the waiting caller by ID, and unsolicited subscription
// notifications go to dispatchNotification, which hands them to every
// active Subscribe call.
func (c *SubstrateChain) readLoop() {
	for {
		var msg rpcResponse
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.log.WithError(err).Warn("websocket read failed, connection closed")
			c.pmu.Lock()
			for _, ch := range c.pending {
				close(ch)
			}
			c.pending = make(map[uint64]chan rpcResponse)
			c.pmu.Unlock()
			return
		}
		if msg.Method == "bridge_crosschainTransferRequest" {
			c.dispatchNotification(msg.RawParams)
			continue
		}
		c.pmu.Lock()
		ch, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.pmu.Unlock()
		if ok {
			ch <- msg
			close(ch)
		}
	}
}

func (c *SubstrateChain) dispatchNotification(raw json.RawMessage) {
	var note crosschainTransferRequestNotification
	if err := json.Unmarshal(raw, &note); err != nil {
		c.log.WithError(err).Warn("failed to decode subscription notification")
		return
	}
	c.smu.Lock()
	defer c.smu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- note:
		default:
		}
	}
}

// call issues a JSON-RPC request and blocks for its matching reply.
func (c *SubstrateChain) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	id := atomic.AddUint64(&c.nextID, 1)
	reply := make(chan rpcResponse, 1)
	c.pmu.Lock()
	c.pending[id] = reply
	c.pmu.Unlock()

	c.mu.Lock()
	err := c.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write rpc request: %w", err)
	}

	select {
	case msg, ok := <-reply:
		if !ok {
			return nil, fmt.Errorf("connection closed before reply to %s", method)
		}
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe watches the bridge contract's event feed starting at
// fromBlock, grouping notifications into per-block batches.
func (c *SubstrateChain) Subscribe(ctx context.Context, fromBlock uint64) (<-chan relayer.BlockBatch, <-chan error) {
	out := make(chan relayer.BlockBatch, 16)
	errs := make(chan error, 1)

	noteCh := make(chan crosschainTransferRequestNotification, 64)
	c.smu.Lock()
	c.subs = append(c.subs, noteCh)
	c.smu.Unlock()

	if _, err := c.call(ctx, "bridge_subscribeCrosschainTransferRequest", []any{c.contractAddr, fromBlock}); err != nil {
		errs <- fmt.Errorf("subscribe to bridge events: %w", err)
		close(out)
		close(errs)
		return out, errs
	}

	go c.pump(ctx, noteCh, out, errs)
	return out, errs
}

func (c *SubstrateChain) pump(ctx context.Context, noteCh <-chan crosschainTransferRequestNotification, out chan<- relayer.BlockBatch, errs chan<- error) {
	defer close(out)
	defer close(errs)

	pending := map[uint64][]relayer.TransferEvent{}
	var lastSealed uint64

	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-noteCh:
			if !ok {
				errs <- fmt.Errorf("notification stream closed")
				return
			}
			ev, err := decodeNotification(note)
			if err != nil {
				c.log.WithError(err).Warn("failed to decode notification, skipping")
				continue
			}
			if note.Block > lastSealed && len(pending) > 0 {
				for b := lastSealed; b < note.Block; b++ {
					batch := pending[b]
					delete(pending, b)
					select {
					case out <- relayer.BlockBatch{Block: b, Events: batch}:
					case <-ctx.Done():
						return
					}
				}
			}
			lastSealed = note.Block
			pending[note.Block] = append(pending[note.Block], ev)
		}
	}
}

func decodeNotification(n crosschainTransferRequestNotification) (relayer.TransferEvent, error) {
	destToken, err := core.ParseAccountID(n.DestToken)
	if err != nil {
		return relayer.TransferEvent{}, err
	}
	destReceiver, err := core.ParseAccountID(n.DestReceiver)
	if err != nil {
		return relayer.TransferEvent{}, err
	}
	var amount, nonce big.Int
	if _, ok := amount.SetString(n.Amount, 10); !ok {
		return relayer.TransferEvent{}, fmt.Errorf("invalid amount %q", n.Amount)
	}
	if _, ok := nonce.SetString(n.Nonce, 10); !ok {
		return relayer.TransferEvent{}, fmt.Errorf("invalid nonce %q", n.Nonce)
	}
	return relayer.TransferEvent{
		Block:        n.Block,
		CommitteeID:  n.CommitteeID,
		DestToken:    destToken,
		Amount:       core.U128FromBigInt(&amount),
		DestReceiver: destReceiver,
		Nonce:        core.U128FromBigInt(&nonce),
	}, nil
}

// SubmitVote calls receive_request over JSON-RPC, authorized by the
// adapter's signer seed. A remote error whose message matches one of
// the bridge's own permanent-failure reasons is wrapped in the matching
// sentinel so the handler's retry logic treats it as non-retryable.
func (c *SubstrateChain) SubmitVote(ctx context.Context, v relayer.VoteRequest) error {
	params := []any{
		c.contractAddr,
		c.signerSeed,
		fmt.Sprintf("0x%x", v.Hash),
		v.CommitteeID,
		v.DestToken.String(),
		v.Amount.BigInt().String(),
		v.DestReceiver.String(),
		v.Nonce.BigInt().String(),
	}
	_, err := c.call(ctx, "bridge_receiveRequest", params)
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "HashDoesNotMatchData"):
		return fmt.Errorf("%s: %w", msg, core.ErrHashDoesNotMatchData)
	case strings.Contains(msg, "NotInCommittee"):
		return fmt.Errorf("%s: %w", msg, core.ErrNotInCommittee)
	default:
		return err
	}
}

// Close tears down the underlying websocket connection.
func (c *SubstrateChain) Close() error {
	c.smu.Lock()
	c.subs = nil
	c.smu.Unlock()
	return c.conn.Close()
}
