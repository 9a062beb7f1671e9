package transactionSigner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/Layr-Labs/arc-crypto-go/pkg/signingWallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var (
	// fallback priority fees when the node does not support eth_maxPriorityFeePerGas
	ethereumFallbackGasTipCap = big.NewInt(1500000000) // 1.5 gwei
	defaultFallbackGasTipCap  = big.NewInt(1000000)    // 0.001 gwei
)

// WalletTransactionSigner implements ITransactionSigner on top of an ISigningWallet
type WalletTransactionSigner struct {
	backend IChainBackend
	wallet  signingWallet.ISigningWallet
	logger  *zap.Logger
	chainID *big.Int
}

// NewWalletTransactionSigner creates a signer bound to the backend's chain
func NewWalletTransactionSigner(wallet signingWallet.ISigningWallet, backend IChainBackend, logger *zap.Logger) (*WalletTransactionSigner, error) {
	// Get chain ID during initialization
	chainID, err := backend.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return &WalletTransactionSigner{
		backend: backend,
		wallet:  wallet,
		logger:  logger,
		chainID: chainID,
	}, nil
}

// GetTransactOpts returns options that build an unsigned transaction without touching the
// network. Fees, gas and nonce are placeholders resolved in SignAndSendTransaction.
func (ws *WalletTransactionSigner) GetTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts := &bind.TransactOpts{
		From:      ws.wallet.GetAddress(),
		Context:   ctx,
		NoSend:    true,
		Nonce:     new(big.Int),
		GasTipCap: new(big.Int),
		GasFeeCap: new(big.Int),
		GasLimit:  1,
		Signer: func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
			// signing happens in SignAndSendTransaction
			return tx, nil
		},
	}
	return opts, nil
}

func (ws *WalletTransactionSigner) fallbackGasTipCap() (*big.Int, int64) {
	if config.IsEthereum(config.ChainId(ws.chainID.Uint64())) {
		return ethereumFallbackGasTipCap, 3
	}
	return defaultFallbackGasTipCap, 2
}

// estimateFees returns the priority fee, max fee per gas and the base fee they were derived from
func (ws *WalletTransactionSigner) estimateFees(ctx context.Context) (*big.Int, *big.Int, *big.Int, error) {
	fallbackTip, baseFeeMultiplier := ws.fallbackGasTipCap()

	gasTipCap, err := ws.backend.SuggestGasTipCap(ctx)
	if err != nil {
		ws.logger.Sugar().Warnw("SignAndSendTransaction: cannot get gasTipCap, using fallback",
			zap.Error(err),
		)
		gasTipCap = fallbackTip
	}

	header, err := ws.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get latest block header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	// basefee * multiplier + tip
	maxFeePerGas := new(big.Int).Add(
		new(big.Int).Mul(baseFee, big.NewInt(baseFeeMultiplier)),
		gasTipCap,
	)
	return gasTipCap, maxFeePerGas, baseFee, nil
}

func (ws *WalletTransactionSigner) estimateGasLimit(ctx context.Context, tx *types.Transaction, gasTipCap, maxFeePerGas *big.Int) (uint64, error) {
	gasLimit, err := ws.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      ws.wallet.GetAddress(),
		To:        tx.To(),
		GasTipCap: gasTipCap,
		GasFeeCap: maxFeePerGas,
		Value:     tx.Value(),
		Data:      tx.Data(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return addGasBuffer(gasLimit), nil
}

// SignAndSendTransaction rebuilds tx as an EIP-1559 transaction with fresh fees and nonce,
// signs it with the wallet, sends it and waits for a successful receipt.
func (ws *WalletTransactionSigner) SignAndSendTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if tx.To() == nil {
		return nil, fmt.Errorf("contract creation transactions are not supported")
	}

	gasTipCap, maxFeePerGas, baseFee, err := ws.estimateFees(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit, err := ws.estimateGasLimit(ctx, tx, gasTipCap, maxFeePerGas)
	if err != nil {
		return nil, err
	}

	// Always fetch from the network: a zero nonce on the incoming tx is indistinguishable from unset
	nonce, err := ws.backend.PendingNonceAt(ctx, ws.wallet.GetAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	unsignedTx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   ws.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: maxFeePerGas,
		Gas:       gasLimit,
		To:        tx.To(),
		Value:     tx.Value(),
		Data:      tx.Data(),
	})

	ws.logger.Info("SignAndSendTransaction: sending transaction",
		zap.String("to", tx.To().Hex()),
		zap.String("maxPriorityFeePerGas", gasTipCap.String()),
		zap.String("maxFeePerGas", maxFeePerGas.String()),
		zap.String("baseFee", baseFee.String()),
		zap.Uint64("gasLimit", gasLimit),
		zap.Uint64("nonce", nonce),
	)

	signedTx, err := ws.wallet.SignTransaction(ctx, unsignedTx, ws.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := ws.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	ws.logger.Info("SignAndSendTransaction: transaction sent",
		zap.String("txHash", signedTx.Hash().Hex()),
	)

	// Verify the transaction is in the mempool
	_, isPending, err := ws.backend.TransactionByHash(ctx, signedTx.Hash())
	if err != nil {
		ws.logger.Warn("Could not verify transaction in mempool",
			zap.Error(err),
			zap.String("txHash", signedTx.Hash().Hex()),
		)
	} else {
		ws.logger.Debug("Transaction verified in mempool",
			zap.Bool("isPending", isPending),
			zap.String("txHash", signedTx.Hash().Hex()),
		)
	}

	receipt, err := bind.WaitMined(ctx, ws.backend, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction receipt: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		ws.logger.Error("SignAndSendTransaction: transaction failed",
			zap.String("txHash", receipt.TxHash.Hex()),
			zap.Uint64("status", receipt.Status),
			zap.Uint64("gasUsed", receipt.GasUsed),
		)
		return receipt, fmt.Errorf("transaction %s failed with status %d", receipt.TxHash.Hex(), receipt.Status)
	}

	blockNumber := uint64(0)
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	ws.logger.Info("SignAndSendTransaction: transaction succeeded",
		zap.String("txHash", receipt.TxHash.Hex()),
		zap.Uint64("gasUsed", receipt.GasUsed),
		zap.Uint64("blockNumber", blockNumber),
	)

	return receipt, nil
}

// GetFromAddress returns the address that will be used for signing
func (ws *WalletTransactionSigner) GetFromAddress() common.Address {
	return ws.wallet.GetAddress()
}

// EstimateGasPriceAndLimit returns the max fee per gas and the buffered gas limit for tx
func (ws *WalletTransactionSigner) EstimateGasPriceAndLimit(ctx context.Context, tx *types.Transaction) (*big.Int, uint64, error) {
	gasTipCap, maxFeePerGas, _, err := ws.estimateFees(ctx)
	if err != nil {
		return nil, 0, err
	}
	gasLimit, err := ws.estimateGasLimit(ctx, tx, gasTipCap, maxFeePerGas)
	if err != nil {
		return nil, 0, err
	}
	return maxFeePerGas, gasLimit, nil
}
