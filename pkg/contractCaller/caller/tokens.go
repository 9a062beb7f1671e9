package caller

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ApproveERC20 grants spender an allowance of amount on token
func (cc *ContractCaller) ApproveERC20(
	ctx context.Context,
	token common.Address,
	spender common.Address,
	amount *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Approving ERC20 allowance",
		"token", token.Hex(),
		"spender", spender.Hex(),
		"amount", amount.String(),
	)
	return cc.transact(ctx, token, cc.abis.erc20, "approve", spender, amount)
}

// ApproveNft approves spender for a single ERC721 token
func (cc *ContractCaller) ApproveNft(
	ctx context.Context,
	token common.Address,
	spender common.Address,
	tokenId *big.Int,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Approving NFT transfer",
		"token", token.Hex(),
		"spender", spender.Hex(),
		"tokenId", tokenId.String(),
	)
	return cc.transact(ctx, token, cc.abis.erc721, "approve", spender, tokenId)
}

// SetApprovalForAll toggles operator approval on an ERC1155 collection
func (cc *ContractCaller) SetApprovalForAll(
	ctx context.Context,
	token common.Address,
	operator common.Address,
	approved bool,
) (*types.Receipt, error) {
	cc.logger.Sugar().Infow("Setting approval for all",
		"token", token.Hex(),
		"operator", operator.Hex(),
		"approved", approved,
	)
	return cc.transact(ctx, token, cc.abis.erc1155, "setApprovalForAll", operator, approved)
}
