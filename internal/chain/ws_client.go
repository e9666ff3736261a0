package chain

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration
	Logger           *zap.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  15 * time.Second,
	}
}

type signatureSub struct {
	sig        solana.Signature
	commitment Commitment
	ch         chan SignatureResult
}

type pendingSub struct {
	sub  *signatureSub
	idCh chan int64
}

// WSClientImpl implements Confirmer using gorilla/websocket and signatureSubscribe.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to its waiter
	subs   map[int64]*signatureSub
	subsMu sync.Mutex

	// pendingSubs maps request ID to the subscription awaiting its ID
	pendingSubs   map[uint64]*pendingSub
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// Compile-time interface check.
var _ Confirmer = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		logger:      logger.Named("ws"),
		subs:        make(map[int64]*signatureSub),
		pendingSubs: make(map[uint64]*pendingSub),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// WaitForSignature subscribes to the signature and waits for its notification.
func (c *WSClientImpl) WaitForSignature(ctx context.Context, sig solana.Signature, commitment Commitment) (*SignatureResult, error) {
	sub := &signatureSub{
		sig:        sig,
		commitment: commitment,
		ch:         make(chan SignatureResult, 1),
	}

	if _, err := c.subscribe(ctx, sub); err != nil {
		return nil, err
	}

	select {
	case res, ok := <-sub.ch:
		if !ok {
			return nil, fmt.Errorf("client closed")
		}
		return &res, nil
	case <-ctx.Done():
		c.dropSub(sub)
		return nil, ctx.Err()
	}
}

// subscribe sends signatureSubscribe and returns the subscription id. The
// subscription is registered by the read loop before any notification for it
// can be dispatched.
func (c *WSClientImpl) subscribe(ctx context.Context, sub *signatureSub) (int64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			sub.sig.String(),
			map[string]string{"commitment": string(sub.commitment)},
		},
	}

	confirmCh := make(chan int64, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = &pendingSub{sub: sub, idCh: confirmCh}
	c.pendingSubsMu.Unlock()

	forget := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		forget()
		return 0, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		forget()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case subID, ok := <-confirmCh:
		if !ok {
			return 0, fmt.Errorf("client closed")
		}
		return subID, nil
	case <-timer.C:
		forget()
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		forget()
		return 0, ctx.Err()
	}
}

func (c *WSClientImpl) dropSub(sub *signatureSub) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for id, s := range c.subs {
		if s == sub {
			delete(c.subs, id)
		}
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, p := range c.pendingSubs {
		close(p.idCh)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches notifications, reconnecting on failure.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect re-dials and resubscribes every outstanding signature.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Warn("reconnect failed", zap.Error(err))
		return
	}

	c.subsMu.Lock()
	old := make(map[int64]*signatureSub, len(c.subs))
	for id, sub := range c.subs {
		old[id] = sub
	}
	c.subsMu.Unlock()

	for oldID, sub := range old {
		newID, err := c.subscribe(ctx, sub)
		if err != nil {
			c.logger.Warn("resubscribe failed", zap.String("signature", sub.sig.String()), zap.Error(err))
			continue
		}
		if newID == oldID {
			continue
		}
		c.subsMu.Lock()
		if c.subs[oldID] == sub {
			delete(c.subs, oldID)
		}
		c.subsMu.Unlock()
	}
}

func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.ID > 0 && resp.Result != nil {
		c.handleSubscribeResponse(resp.ID, *resp.Result)
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "signatureNotification" {
		c.handleSignatureNotification(&notif)
		return
	}

	var errResp wsErrorResponse
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		c.logger.Warn("subscription error response",
			zap.Uint64("request_id", errResp.ID),
			zap.Int("code", errResp.Error.Code),
			zap.String("message", errResp.Error.Message))
	}
}

func (c *WSClientImpl) handleSubscribeResponse(reqID uint64, subID int64) {
	c.pendingSubsMu.Lock()
	p, ok := c.pendingSubs[reqID]
	if ok {
		delete(c.pendingSubs, reqID)
	}
	c.pendingSubsMu.Unlock()

	if !ok {
		return
	}

	c.subsMu.Lock()
	c.subs[subID] = p.sub
	c.subsMu.Unlock()

	select {
	case p.idCh <- subID:
	default:
	}
}

// handleSignatureNotification delivers the result; the node cancels the
// subscription after the first notification.
func (c *WSClientImpl) handleSignatureNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[notif.Params.Subscription]
	if ok {
		delete(c.subs, notif.Params.Subscription)
	}
	c.subsMu.Unlock()

	if !ok {
		return
	}

	res := SignatureResult{Err: notif.Params.Result.Value.Err}
	if notif.Params.Result.Context != nil {
		res.Slot = notif.Params.Result.Context.Slot
	}
	sub.ch <- res
}

func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in readLoop.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  *int64 `json:"result"` // subscription ID
}

type wsErrorResponse struct {
	ID    uint64    `json:"id"`
	Error *RPCError `json:"error"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *rpcContext      `json:"context"`
	Value   wsSignatureValue `json:"value"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
