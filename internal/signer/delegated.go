package signer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-copy-trader/internal/httpclient"
)

// SolanaMainnetCAIP2 identifies mainnet-beta to the custody service.
const SolanaMainnetCAIP2 = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"

// DelegatedConfig identifies a custody-held wallet.
type DelegatedConfig struct {
	BaseURL   string
	AppID     string
	AppSecret string
	WalletID  string
	PublicKey solana.PublicKey
	CAIP2     string
}

// DelegatedOptions configures a DelegatedSigner.
type DelegatedOptions struct {
	HTTP   httpclient.Options
	Logger *zap.Logger
}

// DelegatedSigner hands unsigned transactions to a custody service that signs
// and broadcasts them.
type DelegatedSigner struct {
	cfg    DelegatedConfig
	client *httpclient.Client
	cache  *BlockhashCache
	logger *zap.Logger
}

var _ Signer = (*DelegatedSigner)(nil)

// NewDelegatedSigner creates a custody-backed signer.
func NewDelegatedSigner(cfg DelegatedConfig, cache *BlockhashCache, opts DelegatedOptions) (*DelegatedSigner, error) {
	if cfg.BaseURL == "" || cfg.AppID == "" || cfg.WalletID == "" {
		return nil, errors.New("delegated signer requires base url, app id and wallet id")
	}
	if cfg.PublicKey.IsZero() {
		return nil, errors.New("delegated signer requires the wallet public key")
	}
	if cfg.CAIP2 == "" {
		cfg.CAIP2 = SolanaMainnetCAIP2
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpOpts := opts.HTTP
	httpOpts.Name = "custody"
	httpOpts.BasicAuth = &httpclient.BasicAuth{Username: cfg.AppID, Password: cfg.AppSecret}
	httpOpts.Headers = map[string]string{"privy-app-id": cfg.AppID}
	httpOpts.Logger = opts.Logger

	return &DelegatedSigner{
		cfg:    cfg,
		client: httpclient.New(cfg.BaseURL, httpOpts),
		cache:  cache,
		logger: opts.Logger.Named("signer"),
	}, nil
}

func (s *DelegatedSigner) PublicKey() solana.PublicKey { return s.cfg.PublicKey }

type custodyRequest struct {
	Method string        `json:"method"`
	CAIP2  string        `json:"caip2"`
	Params custodyParams `json:"params"`
}

type custodyParams struct {
	Transaction string `json:"transaction"`
	Encoding    string `json:"encoding"`
}

type custodyResponse struct {
	Data struct {
		Hash string `json:"hash"`
	} `json:"data"`
}

// SignAndSend serializes tx without signatures and asks the custody service
// to sign and broadcast it.
func (s *DelegatedSigner) SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if n := int(tx.Message.Header.NumRequiredSignatures); len(tx.Signatures) != n {
		tx.Signatures = make([]solana.Signature, n)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, &SignError{Err: fmt.Errorf("serialize: %w", err)}
	}

	req := custodyRequest{
		Method: "signAndSendTransaction",
		CAIP2:  s.cfg.CAIP2,
		Params: custodyParams{
			Transaction: base64.StdEncoding.EncodeToString(raw),
			Encoding:    "base64",
		},
	}
	headers := map[string]string{"privy-idempotency-key": uuid.NewString()}

	var resp custodyResponse
	path := "/v1/wallets/" + url.PathEscape(s.cfg.WalletID) + "/rpc"
	if err := s.client.PostJSON(ctx, path, headers, req, &resp); err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			// The service refused to sign.
			return solana.Signature{}, &SignError{Err: err}
		}
		return solana.Signature{}, classifySubmit(err)
	}

	sig, err := solana.SignatureFromBase58(resp.Data.Hash)
	if err != nil {
		return solana.Signature{}, &SubmitError{Err: fmt.Errorf("custody returned signature %q: %w", resp.Data.Hash, err)}
	}

	s.logger.Debug("transaction submitted via custody", zap.String("signature", sig.String()))
	return sig, nil
}

// PrioritySignAndSend builds a transaction from ixs and submits it via custody.
func (s *DelegatedSigner) PrioritySignAndSend(ctx context.Context, ixs []solana.Instruction, p Priority) (solana.Signature, error) {
	if s.cache == nil {
		return solana.Signature{}, &SignError{Err: errors.New("no blockhash cache")}
	}
	tx, err := buildTransaction(ctx, s.cache, s.cfg.PublicKey, ixs, p)
	if err != nil {
		return solana.Signature{}, err
	}
	return s.SignAndSend(ctx, tx)
}
