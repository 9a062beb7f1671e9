package caller

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

func (cc *ContractCaller) buildTransactionOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return cc.signer.GetTransactOpts(ctx)
}

func (cc *ContractCaller) signAndSendTransaction(ctx context.Context, tx *ethereumTypes.Transaction, operation string) (*ethereumTypes.Receipt, error) {
	cc.logger.Sugar().Infow("Signing and sending transaction",
		zap.String("operation", operation),
		zap.String("from", cc.signer.GetFromAddress().Hex()),
		zap.String("to", tx.To().Hex()),
	)

	receipt, err := cc.signer.SignAndSendTransaction(ctx, tx)
	if err != nil {
		return receipt, fmt.Errorf("%w: %s: %w", types.ErrContractCallReverted, operation, err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: %s: no receipt returned", types.ErrContractCallReverted, operation)
	}
	if receipt.Status != ethereumTypes.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s: transaction %s has status %d", types.ErrContractCallReverted, operation, receipt.TxHash.Hex(), receipt.Status)
	}
	return receipt, nil
}

// transact packs method against contractABI, builds the unsigned transaction with the
// signer's opts and hands it to the signer.
func (cc *ContractCaller) transact(
	ctx context.Context,
	contract common.Address,
	contractABI abi.ABI,
	method string,
	params ...interface{},
) (*ethereumTypes.Receipt, error) {
	if contract == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero address for %s", types.ErrInvalidContractAddress, method)
	}
	for i, p := range params {
		if v, ok := p.(*big.Int); ok && v == nil {
			return nil, fmt.Errorf("argument %d of %s is nil", i, method)
		}
	}

	txOpts, err := cc.buildTransactionOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction options: %w", err)
	}

	bound := bind.NewBoundContract(contract, contractABI, cc.backend, cc.backend, cc.backend)
	tx, err := bound.Transact(txOpts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction for %s on %s: %w", method, contract.Hex(), err)
	}

	return cc.signAndSendTransaction(ctx, tx, method)
}
