package session

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/Layr-Labs/arc-crypto-go/pkg/contractCaller/caller"
	"github.com/Layr-Labs/arc-crypto-go/pkg/dispatcher"
	"github.com/Layr-Labs/arc-crypto-go/pkg/keyDerivation"
	"github.com/Layr-Labs/arc-crypto-go/pkg/messageHasher"
	"github.com/Layr-Labs/arc-crypto-go/pkg/registration"
	"github.com/Layr-Labs/arc-crypto-go/pkg/signingWallet"
	"github.com/Layr-Labs/arc-crypto-go/pkg/starkSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/transactionSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/Layr-Labs/chain-indexer/pkg/clients/ethereum"
	"go.uber.org/zap"
)

// Session pairs an Ethereum wallet with the STARK keypair derived from it. It only
// exists once derivation succeeded and holds no mutable state, so it can be shared
// between goroutines.
type Session struct {
	wallet       signingWallet.ISigningWallet
	keyPair      *types.StarkKeyPair
	signer       *starkSigner.Signer
	registration *registration.Coordinator
	dispatcher   *dispatcher.Dispatcher
	logger       *zap.Logger
}

// Builder collects the collaborators of a Session
type Builder struct {
	wallet               signingWallet.ISigningWallet
	keyDerivationMessage string
	dispatcher           *dispatcher.Dispatcher
	logger               *zap.Logger
}

func NewBuilder(wallet signingWallet.ISigningWallet, logger *zap.Logger) *Builder {
	return &Builder{
		wallet:               wallet,
		keyDerivationMessage: config.DefaultKeyDerivationMessage,
		logger:               logger,
	}
}

func (b *Builder) WithKeyDerivationMessage(message string) *Builder {
	if message != "" {
		b.keyDerivationMessage = message
	}
	return b
}

// WithDispatcher enables Deposit and Withdraw on the built session
func (b *Builder) WithDispatcher(d *dispatcher.Dispatcher) *Builder {
	b.dispatcher = d
	return b
}

// Build asks the wallet to sign the key derivation message and derives the STARK keypair
// from the signature.
func (b *Builder) Build(ctx context.Context) (*Session, error) {
	if b.wallet == nil {
		return nil, types.ErrMissingWallet
	}

	address := b.wallet.GetAddress()
	b.logger.Sugar().Infow("Requesting key derivation signature",
		zap.String("address", address.Hex()),
	)

	sig, err := b.wallet.SignMessage(ctx, []byte(b.keyDerivationMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to sign key derivation message: %w", err)
	}

	keyPair, err := keyDerivation.Derive(sig)
	if err != nil {
		return nil, err
	}

	signer, err := starkSigner.NewSigner(keyPair)
	if err != nil {
		return nil, err
	}

	b.logger.Sugar().Infow("Derived stark key",
		zap.String("address", address.Hex()),
		zap.String("starkKey", keyPair.PublicKeyHex()),
	)

	return &Session{
		wallet:       b.wallet,
		keyPair:      keyPair,
		signer:       signer,
		registration: registration.NewCoordinator(b.logger),
		dispatcher:   b.dispatcher,
		logger:       b.logger,
	}, nil
}

// NewSessionFromConfig connects to cfg.RpcUrl, builds the configured wallet and wires the
// transaction signer, contract caller and dispatcher behind the session.
func NewSessionFromConfig(ctx context.Context, cfg *config.SessionConfig, logger *zap.Logger) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	wallet, err := signingWallet.NewSigningWalletFromConfig(ctx, cfg.Wallet, logger)
	if err != nil {
		return nil, err
	}

	ethClient := ethereum.NewEthereumClient(&ethereum.EthereumClientConfig{
		BaseUrl:   cfg.RpcUrl,
		BlockType: ethereum.BlockType_Latest,
	}, logger)

	l1Client, err := ethClient.GetEthereumContractCaller()
	if err != nil {
		return nil, fmt.Errorf("failed to get Ethereum contract caller: %w", err)
	}

	txSigner, err := transactionSigner.NewWalletTransactionSigner(wallet, l1Client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction signer: %w", err)
	}
	if err := checkChainID(ctx, l1Client, cfg.ChainID); err != nil {
		return nil, err
	}

	cc, err := caller.NewContractCallerFromEthereumClient(ethClient, txSigner, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract caller: %w", err)
	}

	return NewBuilder(wallet, logger).
		WithKeyDerivationMessage(cfg.GetKeyDerivationMessage()).
		WithDispatcher(dispatcher.NewDispatcher(cc, logger)).
		Build(ctx)
}

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

func checkChainID(ctx context.Context, backend chainIDReader, expected config.ChainId) error {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != uint64(expected) {
		return fmt.Errorf("rpc endpoint serves chain %s, configured chain is %d", chainID, expected)
	}
	return nil
}

// StarkKeyPair returns a copy of the derived keypair
func (s *Session) StarkKeyPair() *types.StarkKeyPair {
	return &types.StarkKeyPair{
		PublicKey: new(big.Int).Set(s.keyPair.PublicKey),
		SecretKey: new(big.Int).Set(s.keyPair.SecretKey),
	}
}

func (s *Session) Wallet() signingWallet.ISigningWallet {
	return s.wallet
}

func (s *Session) SignOrder(order *types.LimitOrderMessage) (*types.StarkSignature, error) {
	if order == nil {
		return nil, fmt.Errorf("order is nil")
	}
	hash, err := messageHasher.HashLimitOrder(order)
	if err != nil {
		return nil, err
	}
	return s.signer.SignHash(hash)
}

func (s *Session) SignTransfer(transfer *types.TransferMessage) (*types.StarkSignature, error) {
	if transfer == nil {
		return nil, fmt.Errorf("transfer is nil")
	}
	hash, err := messageHasher.HashTransfer(transfer.SignablePayload)
	if err != nil {
		return nil, err
	}
	return s.signer.SignHash(hash)
}

func (s *Session) SignMarketplaceOrder(order *types.MarketplaceOrderMessage) (*types.StarkSignature, error) {
	if order == nil {
		return nil, fmt.Errorf("marketplace order is nil")
	}
	hash, err := messageHasher.HashMarketplaceOrder(order.SignablePayload)
	if err != nil {
		return nil, err
	}
	return s.signer.SignHash(hash)
}

// Register builds the registration claim for the session's wallet and stark key
func (s *Session) Register(ctx context.Context, details *types.RegistrationDetails) (*types.RegistrationClaim, error) {
	return s.registration.Register(ctx, details, s.wallet, s.keyPair)
}

// Deposit resolves details into an on-chain action and executes it. The action is
// returned even on failure so callers can inspect its state and tx hashes.
func (s *Session) Deposit(ctx context.Context, details *types.DepositDetails) (*dispatcher.OnChainAssetAction, error) {
	if s.dispatcher == nil {
		return nil, fmt.Errorf("session is not connected to a chain")
	}
	action, err := dispatcher.NewDepositAction(details)
	if err != nil {
		return nil, err
	}
	return action, s.dispatcher.Execute(ctx, action)
}

func (s *Session) Withdraw(ctx context.Context, details *types.WithdrawDetails) (*dispatcher.OnChainAssetAction, error) {
	if s.dispatcher == nil {
		return nil, fmt.Errorf("session is not connected to a chain")
	}
	action, err := dispatcher.NewWithdrawAction(details)
	if err != nil {
		return nil, err
	}
	return action, s.dispatcher.Execute(ctx, action)
}
