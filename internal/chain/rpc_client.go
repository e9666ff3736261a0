package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"solana-copy-trader/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	limiter     *rate.Limiter
	requestID   atomic.Uint64
}

// Compile-time interface check.
var _ RPCClient = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for transport failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// BlockhashExpired reports whether the node rejected the transaction for an
// unknown or expired blockhash.
func (e *RPCError) BlockhashExpired() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "blockhash not found") || strings.Contains(msg, "block height exceeded")
}

// TransportError marks failures that never produced a JSON-RPC response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "rpc transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		// RPC errors are answers, not transport failures.
		if rpcResp.Error != nil {
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return &TransportError{Err: fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)}
}

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type getAccountInfoResult struct {
	Context rpcContext           `json:"context"`
	Value   *getAccountInfoValue `json:"value"`
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

// GetAccountInfoWithCommitment retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfoWithCommitment(ctx context.Context, pubkey solana.PublicKey, commitment Commitment) (*AccountInfo, error) {
	params := []interface{}{
		pubkey.String(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": string(commitment),
		},
	}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Executable: result.Value.Executable,
		RentEpoch:  result.Value.RentEpoch,
		Slot:       result.Context.Slot,
	}

	if result.Value.Owner != "" {
		owner, err := solana.PublicKeyFromBase58(result.Value.Owner)
		if err != nil {
			return nil, fmt.Errorf("parse owner: %w", err)
		}
		info.Owner = owner
	}

	if len(result.Value.Data) >= 1 {
		data, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
		info.Data = data
	}

	return info, nil
}

type getLatestBlockhashResult struct {
	Context rpcContext `json:"context"`
	Value   struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	} `json:"value"`
}

// GetLatestBlockhash retrieves the most recent blockhash.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": string(commitment)},
	}

	var result getLatestBlockhashResult
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, err
	}

	hash, err := solana.HashFromBase58(result.Value.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("parse blockhash: %w", err)
	}

	return &LatestBlockhash{
		Blockhash:            hash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
		Slot:                 result.Context.Slot,
	}, nil
}

// SendTransaction submits a signed transaction encoded as base64.
func (c *HTTPClient) SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOpts) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}

	config := map[string]interface{}{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
	}
	if opts.PreflightCommitment != "" {
		config["preflightCommitment"] = string(opts.PreflightCommitment)
	}
	if opts.MaxRetries != nil {
		config["maxRetries"] = *opts.MaxRetries
	}

	params := []interface{}{base64.StdEncoding.EncodeToString(raw), config}

	var result string
	if err := c.call(ctx, "sendTransaction", params, &result); err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(result)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("parse signature: %w", err)
	}
	return sig, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for size bytes.
func (c *HTTPClient) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	var result uint64
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", []interface{}{size}, &result); err != nil {
		return 0, err
	}
	return result, nil
}

type getTokenAccountBalanceResult struct {
	Value uiTokenAmount `json:"value"`
}

// GetTokenAccountBalance returns the balance of an SPL token account.
func (c *HTTPClient) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*TokenAmount, error) {
	params := []interface{}{
		account.String(),
		map[string]interface{}{"commitment": string(CommitmentConfirmed)},
	}

	var result getTokenAccountBalanceResult
	if err := c.call(ctx, "getTokenAccountBalance", params, &result); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && strings.Contains(strings.ToLower(rpcErr.Message), "could not find account") {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	amount, err := result.Value.toTokenAmount()
	if err != nil {
		return nil, fmt.Errorf("parse token amount: %w", err)
	}
	return amount, nil
}

type getSignatureStatusesResult struct {
	Value []*struct {
		Slot               uint64      `json:"slot"`
		ConfirmationStatus string      `json:"confirmationStatus"`
		Err                interface{} `json:"err"`
	} `json:"value"`
}

// GetSignatureStatuses returns statuses in request order; unknown signatures are nil.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) ([]*SignatureStatus, error) {
	encoded := make([]string, len(sigs))
	for i, s := range sigs {
		encoded[i] = s.String()
	}
	params := []interface{}{
		encoded,
		map[string]interface{}{"searchTransactionHistory": false},
	}

	var result getSignatureStatusesResult
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			ConfirmationStatus: Commitment(v.ConfirmationStatus),
			Err:                v.Err,
		}
	}
	return statuses, nil
}
