package dispatcher

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/Layr-Labs/arc-crypto-go/pkg/contractCaller"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

type ActionKind string

const (
	ActionKind_Deposit  ActionKind = "deposit"
	ActionKind_Withdraw ActionKind = "withdraw"
)

type ActionState string

const (
	ActionState_Idle      ActionState = "idle"
	ActionState_Approving ActionState = "approving"
	ActionState_Executing ActionState = "executing"
	ActionState_Done      ActionState = "done"
	ActionState_Failed    ActionState = "failed"
)

// IsTerminal reports whether no further transitions are possible
func (s ActionState) IsTerminal() bool {
	return s == ActionState_Done || s == ActionState_Failed
}

// Deposit function tags as served by the settlement API
const (
	DepositFunction_Eth     = "depositEth"
	DepositFunction_Erc20   = "depositERC20"
	DepositFunction_Nft     = "depositNft"
	DepositFunction_Erc1155 = "depositERC1155"
)

// Withdraw function tags as served by the settlement API
const (
	WithdrawFunction_Plain       = "withdraw"
	WithdrawFunction_WithTokenId = "withdrawWithTokenId"
	WithdrawFunction_AndMint     = "withdrawAndMint"
)

// ActionCall is the contract call shape of one deposit or withdraw variant
type ActionCall interface {
	Kind() ActionKind

	// Variant names the variant, e.g. "Erc20" or "WithTokenId"
	Variant() string

	// approve runs the approval stage. needsApproval is false for variants without one.
	approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error)
	needsApproval() bool

	execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error)
}

// EthDeposit deposits QuantizedAmount of native ether through the four argument deposit
type EthDeposit struct {
	OperatorContract common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
	VaultId          *big.Int
	QuantizedAmount  *big.Int
}

func (d *EthDeposit) Kind() ActionKind    { return ActionKind_Deposit }
func (d *EthDeposit) Variant() string     { return "Eth" }
func (d *EthDeposit) needsApproval() bool { return false }

func (d *EthDeposit) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return nil, nil
}

func (d *EthDeposit) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.Deposit(ctx, d.OperatorContract, d.StarkKey, d.AssetType, d.VaultId, d.QuantizedAmount)
}

// Erc20Deposit approves Amount on the token, then deposits QuantizedAmount
type Erc20Deposit struct {
	OperatorContract common.Address
	AssetContract    common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
	VaultId          *big.Int
	Amount           *big.Int
	QuantizedAmount  *big.Int
}

func (d *Erc20Deposit) Kind() ActionKind    { return ActionKind_Deposit }
func (d *Erc20Deposit) Variant() string     { return "Erc20" }
func (d *Erc20Deposit) needsApproval() bool { return true }

func (d *Erc20Deposit) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.ApproveERC20(ctx, d.AssetContract, d.OperatorContract, d.Amount)
}

func (d *Erc20Deposit) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.DepositERC20(ctx, d.OperatorContract, d.StarkKey, d.AssetType, d.VaultId, d.QuantizedAmount)
}

// NftDeposit approves the single token, then deposits it
type NftDeposit struct {
	OperatorContract common.Address
	AssetContract    common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
	VaultId          *big.Int
	TokenId          *big.Int
}

func (d *NftDeposit) Kind() ActionKind    { return ActionKind_Deposit }
func (d *NftDeposit) Variant() string     { return "Nft" }
func (d *NftDeposit) needsApproval() bool { return true }

func (d *NftDeposit) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.ApproveNft(ctx, d.AssetContract, d.OperatorContract, d.TokenId)
}

func (d *NftDeposit) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.DepositNft(ctx, d.OperatorContract, d.StarkKey, d.AssetType, d.VaultId, d.TokenId)
}

// Erc1155Deposit sets approval for all on the collection, then deposits QuantizedAmount of TokenId
type Erc1155Deposit struct {
	OperatorContract common.Address
	AssetContract    common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
	TokenId          *big.Int
	VaultId          *big.Int
	QuantizedAmount  *big.Int
}

func (d *Erc1155Deposit) Kind() ActionKind    { return ActionKind_Deposit }
func (d *Erc1155Deposit) Variant() string     { return "Erc1155" }
func (d *Erc1155Deposit) needsApproval() bool { return true }

func (d *Erc1155Deposit) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.SetApprovalForAll(ctx, d.AssetContract, d.OperatorContract, true)
}

func (d *Erc1155Deposit) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.DepositERC1155(ctx, d.OperatorContract, d.StarkKey, d.AssetType, d.TokenId, d.VaultId, d.QuantizedAmount)
}

type PlainWithdraw struct {
	OperatorContract common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
}

func (w *PlainWithdraw) Kind() ActionKind    { return ActionKind_Withdraw }
func (w *PlainWithdraw) Variant() string     { return "Plain" }
func (w *PlainWithdraw) needsApproval() bool { return false }

func (w *PlainWithdraw) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return nil, nil
}

func (w *PlainWithdraw) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.Withdraw(ctx, w.OperatorContract, w.StarkKey, w.AssetType)
}

type WithTokenIdWithdraw struct {
	OperatorContract common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
	TokenId          *big.Int
}

func (w *WithTokenIdWithdraw) Kind() ActionKind    { return ActionKind_Withdraw }
func (w *WithTokenIdWithdraw) Variant() string     { return "WithTokenId" }
func (w *WithTokenIdWithdraw) needsApproval() bool { return false }

func (w *WithTokenIdWithdraw) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return nil, nil
}

func (w *WithTokenIdWithdraw) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.WithdrawWithTokenId(ctx, w.OperatorContract, w.StarkKey, w.AssetType, w.TokenId)
}

type AndMintWithdraw struct {
	OperatorContract common.Address
	StarkKey         *big.Int
	AssetType        *big.Int
	MintingBlob      []byte
}

func (w *AndMintWithdraw) Kind() ActionKind    { return ActionKind_Withdraw }
func (w *AndMintWithdraw) Variant() string     { return "AndMint" }
func (w *AndMintWithdraw) needsApproval() bool { return false }

func (w *AndMintWithdraw) approve(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return nil, nil
}

func (w *AndMintWithdraw) execute(ctx context.Context, cc contractCaller.IContractCaller) (*ethTypes.Receipt, error) {
	return cc.WithdrawAndMint(ctx, w.OperatorContract, w.StarkKey, w.AssetType, w.MintingBlob)
}

// OnChainAssetAction is a single deposit or withdraw. It runs at most once; after reaching
// Done or Failed it only reports its outcome.
type OnChainAssetAction struct {
	id   uuid.UUID
	call ActionCall

	mu             sync.Mutex
	state          ActionState
	approvalTxHash common.Hash
	executeTxHash  common.Hash
	err            error
}

// NewAction wraps an already resolved call shape
func NewAction(call ActionCall) (*OnChainAssetAction, error) {
	if call == nil {
		return nil, fmt.Errorf("action call is nil")
	}
	return &OnChainAssetAction{
		id:    uuid.New(),
		call:  call,
		state: ActionState_Idle,
	}, nil
}

func (a *OnChainAssetAction) Id() uuid.UUID    { return a.id }
func (a *OnChainAssetAction) Kind() ActionKind { return a.call.Kind() }
func (a *OnChainAssetAction) Variant() string  { return a.call.Variant() }
func (a *OnChainAssetAction) Call() ActionCall { return a.call }

func (a *OnChainAssetAction) State() ActionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// ApprovalTxHash is the approval transaction hash, zero when no approval was mined
func (a *OnChainAssetAction) ApprovalTxHash() common.Hash {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.approvalTxHash
}

// ExecuteTxHash is the deposit or withdraw transaction hash, zero until it is mined
func (a *OnChainAssetAction) ExecuteTxHash() common.Hash {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.executeTxHash
}

// Err is the failure that moved the action to Failed
func (a *OnChainAssetAction) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// NewDepositAction resolves the deposit variant from details.DepositFunction and parses only
// the fields that variant's call needs.
func NewDepositAction(details *types.DepositDetails) (*OnChainAssetAction, error) {
	if details == nil {
		return nil, fmt.Errorf("%w: deposit details are nil", types.ErrUnsupportedDepositVariant)
	}

	var call ActionCall
	var err error
	switch details.DepositFunction {
	case DepositFunction_Eth:
		call, err = parseEthDeposit(details)
	case DepositFunction_Erc20:
		call, err = parseErc20Deposit(details)
	case DepositFunction_Nft:
		call, err = parseNftDeposit(details)
	case DepositFunction_Erc1155:
		call, err = parseErc1155Deposit(details)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedDepositVariant, details.DepositFunction)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s details: %w", details.DepositFunction, err)
	}
	return NewAction(call)
}

// NewWithdrawAction resolves the withdraw variant from details.WithdrawFunction
func NewWithdrawAction(details *types.WithdrawDetails) (*OnChainAssetAction, error) {
	if details == nil {
		return nil, fmt.Errorf("%w: withdraw details are nil", types.ErrUnsupportedWithdrawVariant)
	}

	var call ActionCall
	var err error
	switch details.WithdrawFunction {
	case WithdrawFunction_Plain:
		call, err = parsePlainWithdraw(details)
	case WithdrawFunction_WithTokenId:
		call, err = parseWithTokenIdWithdraw(details)
	case WithdrawFunction_AndMint:
		call, err = parseAndMintWithdraw(details)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedWithdrawVariant, details.WithdrawFunction)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s details: %w", details.WithdrawFunction, err)
	}
	return NewAction(call)
}

// depositFields are the fields every deposit variant shares
type depositFields struct {
	operator  common.Address
	starkKey  *big.Int
	assetType *big.Int
	vaultId   *big.Int
}

func parseDepositFields(details *types.DepositDetails) (*depositFields, error) {
	operator, err := parseAddress("operatorContractAddress", details.OperatorContractAddress)
	if err != nil {
		return nil, err
	}
	starkKey, err := parseNumber("starkKey", details.StarkKey)
	if err != nil {
		return nil, err
	}
	assetType, err := parseNumber("assetType", details.AssetType)
	if err != nil {
		return nil, err
	}
	vaultId, err := parseNumber("vaultId", details.VaultId)
	if err != nil {
		return nil, err
	}
	return &depositFields{operator: operator, starkKey: starkKey, assetType: assetType, vaultId: vaultId}, nil
}

func parseEthDeposit(details *types.DepositDetails) (*EthDeposit, error) {
	f, err := parseDepositFields(details)
	if err != nil {
		return nil, err
	}
	quantizedAmount, err := parseNumber("quantizedAmount", details.QuantizedAmount)
	if err != nil {
		return nil, err
	}
	return &EthDeposit{
		OperatorContract: f.operator,
		StarkKey:         f.starkKey,
		AssetType:        f.assetType,
		VaultId:          f.vaultId,
		QuantizedAmount:  quantizedAmount,
	}, nil
}

func parseErc20Deposit(details *types.DepositDetails) (*Erc20Deposit, error) {
	f, err := parseDepositFields(details)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("assetContractAddress", details.AssetContractAddress)
	if err != nil {
		return nil, err
	}
	amount, err := parseNumber("amount", details.Amount)
	if err != nil {
		return nil, err
	}
	quantizedAmount, err := parseNumber("quantizedAmount", details.QuantizedAmount)
	if err != nil {
		return nil, err
	}
	return &Erc20Deposit{
		OperatorContract: f.operator,
		AssetContract:    asset,
		StarkKey:         f.starkKey,
		AssetType:        f.assetType,
		VaultId:          f.vaultId,
		Amount:           amount,
		QuantizedAmount:  quantizedAmount,
	}, nil
}

func parseNftDeposit(details *types.DepositDetails) (*NftDeposit, error) {
	f, err := parseDepositFields(details)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("assetContractAddress", details.AssetContractAddress)
	if err != nil {
		return nil, err
	}
	tokenId, err := parseNumber("tokenId", details.TokenId)
	if err != nil {
		return nil, err
	}
	return &NftDeposit{
		OperatorContract: f.operator,
		AssetContract:    asset,
		StarkKey:         f.starkKey,
		AssetType:        f.assetType,
		VaultId:          f.vaultId,
		TokenId:          tokenId,
	}, nil
}

func parseErc1155Deposit(details *types.DepositDetails) (*Erc1155Deposit, error) {
	f, err := parseDepositFields(details)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("assetContractAddress", details.AssetContractAddress)
	if err != nil {
		return nil, err
	}
	tokenId, err := parseNumber("tokenId", details.TokenId)
	if err != nil {
		return nil, err
	}
	quantizedAmount, err := parseNumber("quantizedAmount", details.QuantizedAmount)
	if err != nil {
		return nil, err
	}
	return &Erc1155Deposit{
		OperatorContract: f.operator,
		AssetContract:    asset,
		StarkKey:         f.starkKey,
		AssetType:        f.assetType,
		TokenId:          tokenId,
		VaultId:          f.vaultId,
		QuantizedAmount:  quantizedAmount,
	}, nil
}

func parseWithdrawFields(details *types.WithdrawDetails) (common.Address, *big.Int, *big.Int, error) {
	operator, err := parseAddress("operatorContractAddress", details.OperatorContractAddress)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	starkKey, err := parseNumber("starkKey", details.StarkKey)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	assetType, err := parseNumber("assetType", details.AssetType)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return operator, starkKey, assetType, nil
}

func parsePlainWithdraw(details *types.WithdrawDetails) (*PlainWithdraw, error) {
	operator, starkKey, assetType, err := parseWithdrawFields(details)
	if err != nil {
		return nil, err
	}
	return &PlainWithdraw{OperatorContract: operator, StarkKey: starkKey, AssetType: assetType}, nil
}

func parseWithTokenIdWithdraw(details *types.WithdrawDetails) (*WithTokenIdWithdraw, error) {
	operator, starkKey, assetType, err := parseWithdrawFields(details)
	if err != nil {
		return nil, err
	}
	tokenId, err := parseNumber("tokenId", details.TokenId)
	if err != nil {
		return nil, err
	}
	return &WithTokenIdWithdraw{OperatorContract: operator, StarkKey: starkKey, AssetType: assetType, TokenId: tokenId}, nil
}

func parseAndMintWithdraw(details *types.WithdrawDetails) (*AndMintWithdraw, error) {
	operator, starkKey, assetType, err := parseWithdrawFields(details)
	if err != nil {
		return nil, err
	}
	blob, err := hexutil.Decode("0x" + types.StripHexPrefix(details.MintingBlob))
	if err != nil {
		return nil, fmt.Errorf("%w: mintingBlob: %w", types.ErrFieldOutOfRange, err)
	}
	return &AndMintWithdraw{OperatorContract: operator, StarkKey: starkKey, AssetType: assetType, MintingBlob: blob}, nil
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %s %q", types.ErrInvalidContractAddress, name, value)
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s is the zero address", types.ErrInvalidContractAddress, name)
	}
	return addr, nil
}

// parseNumber accepts decimal or 0x hex and bounds the result to uint256
func parseNumber(name, value string) (*big.Int, error) {
	v, err := types.ParseNumeric(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFieldOutOfRange, name, err)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", types.ErrFieldOutOfRange, name)
	}
	return v, nil
}
