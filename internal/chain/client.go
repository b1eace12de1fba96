package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// writeTimeout is the deadline for a single frame write.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the session
	// as dead. pingPeriod must be less than pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// callTimeout bounds a single RPC round trip when the caller's context
	// carries no earlier deadline.
	callTimeout = 30 * time.Second
)

// Dial retry budget. An endpoint that cannot be reached within the budget
// fails the whole run; there is no per-subnet fallback transport.
const (
	dialAttempts      = 5
	backoffInitial    = 1 * time.Second
	backoffMax        = 30 * time.Second
	backoffMultiplier = 2.0
)

// ErrSessionClosed is returned by calls issued after the session ended.
var ErrSessionClosed = errors.New("chain: session closed")

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope. Result is kept raw so
// each call site decodes into its own type.
type rpcResponse struct {
	ID     uint64              `json:"id"`
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcError           `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// snapshotResult is the wire form of a metagraph snapshot. Decoded once at
// the session boundary; the rest of the program only sees Snapshot.
type snapshotResult struct {
	Netuid        int       `json:"netuid"`
	Block         int64     `json:"block"`
	Stake         []float64 `json:"stake"`
	Trust         []float64 `json:"validator_trust"`
	Emission      []float64 `json:"emission"`
	LastUpdate    []int64   `json:"last_update"`
	Hotkeys       []string  `json:"hotkeys"`
	Coldkeys      []string  `json:"coldkeys"`
	TaoInEmission float64   `json:"tao_in_emission"`
}

// Client is a Source backed by one WebSocket JSON-RPC session. Concurrent
// calls are multiplexed over the connection by request id. Client performs
// no writes against chain state.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex // serializes frame writes
	idMu    sync.Mutex
	nextID  uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan *rpcResponse

	closed    chan struct{}
	closeOnce sync.Once
}

// dialFn opens one WebSocket connection. Abstracted so tests can script
// connection failures without a listener.
type dialFn func(ctx context.Context, endpoint string) (*websocket.Conn, error)

func defaultDial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	return conn, err
}

// Dial establishes the session, retrying with jittered exponential backoff
// up to dialAttempts times. The returned Client must be closed by the
// caller.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	return dialWith(ctx, endpoint, defaultDial)
}

func dialWith(ctx context.Context, endpoint string, dial dialFn) (*Client, error) {
	bo := newBackoff()
	var lastErr error

	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := dial(ctx, endpoint)
		if err == nil {
			slog.Info("chain: session established", "endpoint", endpoint, "attempt", attempt)
			c := &Client{
				conn:    conn,
				pending: make(map[uint64]chan *rpcResponse),
				closed:  make(chan struct{}),
			}
			go c.readLoop()
			go c.pingLoop()
			return c, nil
		}

		lastErr = err
		if attempt == dialAttempts {
			break
		}
		wait := bo.next()
		slog.Warn("chain: dial failed, will retry",
			"endpoint", endpoint, "attempt", attempt, "retry_in", wait, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("chain: dial %s after %d attempts: %w", endpoint, dialAttempts, lastErr)
}

// Close tears down the session. In-flight calls fail with ErrSessionClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

// LatestBlock returns the current chain head block number.
func (c *Client) LatestBlock(ctx context.Context) (int64, error) {
	var block int64
	if err := c.call(ctx, "subtensor_latestBlock", nil, &block); err != nil {
		return 0, fmt.Errorf("chain: latest block: %w", err)
	}
	return block, nil
}

// LatestSnapshot returns the subnet's state at the chain head.
func (c *Client) LatestSnapshot(ctx context.Context, netuid int) (*Snapshot, error) {
	var res snapshotResult
	if err := c.call(ctx, "subtensor_metagraph", []any{netuid}, &res); err != nil {
		return nil, &FetchError{Netuid: netuid, Block: -1, Err: err}
	}
	return res.toSnapshot(netuid), nil
}

// SnapshotAt returns the subnet's state at the given block.
func (c *Client) SnapshotAt(ctx context.Context, netuid int, block int64) (*Snapshot, error) {
	var res snapshotResult
	if err := c.call(ctx, "subtensor_metagraph", []any{netuid, block}, &res); err != nil {
		return nil, &FetchError{Netuid: netuid, Block: block, Err: err}
	}
	return res.toSnapshot(netuid), nil
}

func (r *snapshotResult) toSnapshot(netuid int) *Snapshot {
	return &Snapshot{
		Netuid:        netuid,
		Block:         r.Block,
		Stake:         r.Stake,
		Trust:         r.Trust,
		Emission:      r.Emission,
		LastUpdate:    r.LastUpdate,
		Hotkeys:       r.Hotkeys,
		Coldkeys:      r.Coldkeys,
		TaoInEmission: r.TaoInEmission,
	}
}

// call performs one RPC round trip and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}

	c.idMu.Lock()
	c.nextID++
	id := c.nextID
	c.idMu.Unlock()

	ch := make(chan *rpcResponse, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = c.conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s: %w", method, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, callTimeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrSessionClosed
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		return json.Unmarshal(resp.Result, out)
	}
}

// readLoop dispatches incoming responses to their pending calls. It exits,
// closing the session, on the first read error.
func (c *Client) readLoop() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.closeOnce.Do(func() { close(c.closed) })
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var resp rpcResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			slog.Warn("chain: discarding malformed frame", "err", err)
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if !ok {
			// Late response for a call that already timed out.
			continue
		}
		select {
		case ch <- &resp:
		default:
		}
	}
}

// pingLoop keeps the session alive across long local computation gaps.
func (c *Client) pingLoop() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-t.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}
