package contractCaller

import (
	"context"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/contractCaller/caller"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
)

// IContractCaller exposes the settlement contract and asset contract entry points used by
// deposits and withdrawals. Every call returns once the transaction is mined.
type IContractCaller interface {
	// Asset contract approvals
	ApproveERC20(ctx context.Context, token common.Address, spender common.Address, amount *big.Int) (*ethereumTypes.Receipt, error)

	ApproveNft(ctx context.Context, token common.Address, spender common.Address, tokenId *big.Int) (*ethereumTypes.Receipt, error)

	SetApprovalForAll(ctx context.Context, token common.Address, operator common.Address, approved bool) (*ethereumTypes.Receipt, error)

	// StarkExchange deposits
	Deposit(
		ctx context.Context,
		operatorContract common.Address,
		starkKey *big.Int,
		assetType *big.Int,
		vaultId *big.Int,
		quantizedAmount *big.Int,
	) (*ethereumTypes.Receipt, error)

	DepositERC20(
		ctx context.Context,
		operatorContract common.Address,
		starkKey *big.Int,
		assetType *big.Int,
		vaultId *big.Int,
		quantizedAmount *big.Int,
	) (*ethereumTypes.Receipt, error)

	DepositNft(
		ctx context.Context,
		operatorContract common.Address,
		starkKey *big.Int,
		assetType *big.Int,
		vaultId *big.Int,
		tokenId *big.Int,
	) (*ethereumTypes.Receipt, error)

	DepositERC1155(
		ctx context.Context,
		operatorContract common.Address,
		starkKey *big.Int,
		assetType *big.Int,
		tokenId *big.Int,
		vaultId *big.Int,
		quantizedAmount *big.Int,
	) (*ethereumTypes.Receipt, error)

	// StarkExchange withdrawals
	Withdraw(ctx context.Context, operatorContract common.Address, ownerKey *big.Int, assetType *big.Int) (*ethereumTypes.Receipt, error)

	WithdrawWithTokenId(
		ctx context.Context,
		operatorContract common.Address,
		ownerKey *big.Int,
		assetType *big.Int,
		tokenId *big.Int,
	) (*ethereumTypes.Receipt, error)

	WithdrawAndMint(
		ctx context.Context,
		operatorContract common.Address,
		ownerKey *big.Int,
		assetType *big.Int,
		mintingBlob []byte,
	) (*ethereumTypes.Receipt, error)
}

var _ IContractCaller = (*caller.ContractCaller)(nil)
