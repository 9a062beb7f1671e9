package web3signer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultUrl               = "http://localhost:9000"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 5
)

type Config struct {
	BaseUrl           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func DefaultConfig() *Config {
	return &Config{
		BaseUrl:           DefaultUrl,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
	}
}

// Client talks to a Web3Signer instance over its Ethereum JSON-RPC interface
type Client struct {
	config  *Config
	logger  *zap.Logger
	limiter *rate.Limiter

	mu        sync.RWMutex
	rpcClient *rpc.Client
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseUrl == "" {
		return nil, fmt.Errorf("web3signer url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		config:  cfg,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
	}
	if err := c.dial(&http.Client{Timeout: cfg.Timeout}); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWeb3SignerClientFromRemoteSignerConfig builds a client for cfg, falling back to the
// defaults when cfg is nil or has no url.
func NewWeb3SignerClientFromRemoteSignerConfig(cfg *config.RemoteSignerConfig, logger *zap.Logger) (*Client, error) {
	clientConfig := DefaultConfig()
	if cfg != nil && cfg.Url != "" {
		clientConfig.BaseUrl = cfg.Url
	}
	return NewClient(clientConfig, logger)
}

func (c *Client) dial(httpClient *http.Client) error {
	rpcClient, err := rpc.DialOptions(context.Background(), c.config.BaseUrl, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to create web3signer rpc client: %w", err)
	}

	c.mu.Lock()
	previous := c.rpcClient
	c.rpcClient = rpcClient
	c.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return nil
}

func (c *Client) SetHttpClient(client *http.Client) {
	if err := c.dial(client); err != nil {
		c.logger.Sugar().Errorw("Failed to replace web3signer http client", zap.Error(err))
	}
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("web3signer rate limit wait for %s: %w", method, err)
	}

	c.mu.RLock()
	rpcClient := c.rpcClient
	c.mu.RUnlock()

	c.logger.Sugar().Debugw("Calling web3signer", "method", method)
	if err := rpcClient.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("web3signer %s failed: %w", method, err)
	}
	return nil
}

func (c *Client) EthAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) EthSignTransaction(ctx context.Context, from string, transaction map[string]interface{}) (string, error) {
	tx := make(map[string]interface{}, len(transaction)+1)
	for k, v := range transaction {
		tx[k] = v
	}
	tx["from"] = from

	var signed string
	if err := c.call(ctx, &signed, "eth_signTransaction", tx); err != nil {
		return "", err
	}
	return signed, nil
}

func (c *Client) EthSign(ctx context.Context, account string, data string) (string, error) {
	var signature string
	if err := c.call(ctx, &signature, "eth_sign", account, data); err != nil {
		return "", err
	}
	return signature, nil
}

func (c *Client) EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error) {
	var signature string
	if err := c.call(ctx, &signature, "eth_signTypedData", account, typedData); err != nil {
		return "", err
	}
	return signature, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}
