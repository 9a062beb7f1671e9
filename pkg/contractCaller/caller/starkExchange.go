package caller

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Deposit calls deposit(starkKey, assetType, vaultId, quantizedAmount), the overload the
// settlement API expects for native ETH. No value is attached.
func (cc *ContractCaller) Deposit(
	ctx context.Context,
	operatorContract common.Address,
	starkKey *big.Int,
	assetType *big.Int,
	vaultId *big.Int,
	quantizedAmount *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Depositing native asset",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
		"vaultId", vaultId.String(),
		"quantizedAmount", quantizedAmount.String(),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, cc.abis.quantizedDeposit, starkKey, assetType, vaultId, quantizedAmount)
}

func (cc *ContractCaller) DepositERC20(
	ctx context.Context,
	operatorContract common.Address,
	starkKey *big.Int,
	assetType *big.Int,
	vaultId *big.Int,
	quantizedAmount *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Depositing ERC20",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
		"vaultId", vaultId.String(),
		"quantizedAmount", quantizedAmount.String(),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, "depositERC20", starkKey, assetType, vaultId, quantizedAmount)
}

func (cc *ContractCaller) DepositNft(
	ctx context.Context,
	operatorContract common.Address,
	starkKey *big.Int,
	assetType *big.Int,
	vaultId *big.Int,
	tokenId *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Depositing NFT",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
		"vaultId", vaultId.String(),
		"tokenId", tokenId.String(),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, "depositNft", starkKey, assetType, vaultId, tokenId)
}

// DepositERC1155 takes tokenId before vaultId, unlike the other deposit entry points
func (cc *ContractCaller) DepositERC1155(
	ctx context.Context,
	operatorContract common.Address,
	starkKey *big.Int,
	assetType *big.Int,
	tokenId *big.Int,
	vaultId *big.Int,
	quantizedAmount *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Depositing ERC1155",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
		"tokenId", tokenId.String(),
		"vaultId", vaultId.String(),
		"quantizedAmount", quantizedAmount.String(),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, "depositERC1155", starkKey, assetType, tokenId, vaultId, quantizedAmount)
}

func (cc *ContractCaller) Withdraw(
	ctx context.Context,
	operatorContract common.Address,
	ownerKey *big.Int,
	assetType *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Withdrawing",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, "withdraw", ownerKey, assetType)
}

func (cc *ContractCaller) WithdrawWithTokenId(
	ctx context.Context,
	operatorContract common.Address,
	ownerKey *big.Int,
	assetType *big.Int,
	tokenId *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Withdrawing with token id",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
		"tokenId", tokenId.String(),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, "withdrawWithTokenId", ownerKey, assetType, tokenId)
}

func (cc *ContractCaller) WithdrawAndMint(
	ctx context.Context,
	operatorContract common.Address,
	ownerKey *big.Int,
	assetType *big.Int,
	mintingBlob []byte,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Withdrawing and minting",
		"operatorContract", operatorContract.Hex(),
		"assetType", assetType.String(),
		"mintingBlobLength", len(mintingBlob),
	)
	return cc.transact(ctx, operatorContract, cc.abis.starkExchange, "withdrawAndMint", ownerKey, assetType, mintingBlob)
}
