package messageHasher

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/starkCurve"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	instructionLimitOrder        = 0
	instructionLimitOrderWithFee = 3

	vaultBits      = 31
	amountBits     = 63
	nonceBits      = 31
	expirationBits = 22

	// the fee-aware layout stores every field in a 64 or 32 bit slot
	feeSlotWideBits   = 64
	feeSlotNarrowBits = 32
	feePaddingBits    = 17
)

// limitOrderFields holds the parsed numeric fields shared by both limit order layouts
type limitOrderFields struct {
	sellVault  *big.Int
	buyVault   *big.Int
	sellAmount *big.Int
	buyAmount  *big.Int
	sellAsset  *big.Int
	buyAsset   *big.Int
	nonce      *big.Int
	expiration *big.Int
}

// HashLimitOrder returns the hash a limit order is signed over. Orders without fee terms
// use the instruction type 0 layout; orders with fee terms use instruction type 3.
func HashLimitOrder(order *types.LimitOrderMessage) (*big.Int, error) {
	if order == nil {
		return nil, fmt.Errorf("limit order is nil")
	}

	fields, err := parseLimitOrder(order)
	if err != nil {
		return nil, err
	}

	if order.Fee == nil {
		return hashLimitOrderWithoutFee(fields)
	}
	return hashLimitOrderWithFee(fields, order.Fee)
}

func parseLimitOrder(order *types.LimitOrderMessage) (*limitOrderFields, error) {
	sellAmount, err := parseBounded("sellQuantizedAmount", order.SellAmount, types.ParseDecimalBig, amountBits)
	if err != nil {
		return nil, err
	}
	buyAmount, err := parseBounded("buyQuantizedAmount", order.BuyAmount, types.ParseDecimalBig, amountBits)
	if err != nil {
		return nil, err
	}
	sellAsset, err := parseAssetId("assetSell", order.SellAssetId)
	if err != nil {
		return nil, err
	}
	buyAsset, err := parseAssetId("assetBuy", order.BuyAssetId)
	if err != nil {
		return nil, err
	}

	fields := &limitOrderFields{
		sellVault:  new(big.Int).SetUint64(order.SellVault),
		buyVault:   new(big.Int).SetUint64(order.BuyVault),
		sellAmount: sellAmount,
		buyAmount:  buyAmount,
		sellAsset:  sellAsset,
		buyAsset:   buyAsset,
		nonce:      new(big.Int).SetUint64(order.Nonce),
		expiration: new(big.Int).SetUint64(order.Expiration),
	}

	for _, check := range []struct {
		name  string
		value *big.Int
		bits  uint
	}{
		{"sellVaultChainId", fields.sellVault, vaultBits},
		{"buyVaultChainId", fields.buyVault, vaultBits},
		{"nonce", fields.nonce, nonceBits},
		{"expirationTimestamp", fields.expiration, expirationBits},
	} {
		if err := checkWidth(check.name, check.value, check.bits); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func hashLimitOrderWithoutFee(f *limitOrderFields) (*big.Int, error) {
	packed := big.NewInt(instructionLimitOrder)
	packed = pack(packed, f.sellVault, vaultBits)
	packed = pack(packed, f.buyVault, vaultBits)
	packed = pack(packed, f.sellAmount, amountBits)
	packed = pack(packed, f.buyAmount, amountBits)
	packed = pack(packed, f.nonce, nonceBits)
	packed = pack(packed, f.expiration, expirationBits)

	assets, err := starkCurve.PedersenHash(f.sellAsset, f.buyAsset)
	if err != nil {
		return nil, err
	}
	return starkCurve.PedersenHash(assets, packed)
}

func hashLimitOrderWithFee(f *limitOrderFields, fee *types.FeeInfo) (*big.Int, error) {
	feeAsset, err := parseAssetId("fee.assetFee", fee.FeeAssetId)
	if err != nil {
		return nil, err
	}
	feeLimit, err := parseBounded("fee.limit", fee.FeeLimit, types.ParseDecimalBig, amountBits)
	if err != nil {
		return nil, err
	}
	feeVault := new(big.Int).SetUint64(fee.FeeVault)
	if err := checkWidth("fee.vaultChainId", feeVault, vaultBits); err != nil {
		return nil, err
	}

	packed1 := new(big.Int).Set(f.sellAmount)
	packed1 = pack(packed1, f.buyAmount, feeSlotWideBits)
	packed1 = pack(packed1, feeLimit, feeSlotWideBits)
	packed1 = pack(packed1, f.nonce, feeSlotNarrowBits)

	packed2 := big.NewInt(instructionLimitOrderWithFee)
	packed2 = pack(packed2, feeVault, feeSlotWideBits)
	packed2 = pack(packed2, f.sellVault, feeSlotWideBits)
	packed2 = pack(packed2, f.buyVault, feeSlotWideBits)
	packed2 = pack(packed2, f.expiration, feeSlotNarrowBits)
	packed2 = pack(packed2, new(big.Int), feePaddingBits)

	h, err := starkCurve.PedersenHash(f.sellAsset, f.buyAsset)
	if err != nil {
		return nil, err
	}
	if h, err = starkCurve.PedersenHash(h, feeAsset); err != nil {
		return nil, err
	}
	if h, err = starkCurve.PedersenHash(h, packed1); err != nil {
		return nil, err
	}
	return starkCurve.PedersenHash(h, packed2)
}

// HashTransfer parses a transfer payload prepared by the settlement API. The payload is
// already the message hash, so it is returned as is once it is known to be signable.
func HashTransfer(signablePayload string) (*big.Int, error) {
	return parseSignablePayload("transfer", signablePayload)
}

// HashMarketplaceOrder is HashTransfer for marketplace order payloads
func HashMarketplaceOrder(signablePayload string) (*big.Int, error) {
	return parseSignablePayload("marketplace order", signablePayload)
}

// HashIdentityClaim hashes an Ethereum address for the STARK half of a registration
func HashIdentityClaim(address common.Address) (*big.Int, error) {
	return starkCurve.PedersenHashElements(new(big.Int).SetBytes(address.Bytes()))
}

func parseSignablePayload(kind, payload string) (*big.Int, error) {
	v, err := types.ParseHexBig(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", types.ErrFieldOutOfRange, kind, err)
	}
	if v.Cmp(starkCurve.MaxEcdsaValue) >= 0 {
		return nil, fmt.Errorf("%w: %s payload is not below 2^251", types.ErrInvalidHashDomain, kind)
	}
	return v, nil
}

func parseAssetId(name, value string) (*big.Int, error) {
	v, err := types.ParseHexBig(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFieldOutOfRange, name, err)
	}
	if v.Cmp(starkCurve.FieldPrime) >= 0 {
		return nil, fmt.Errorf("%w: %s is not below the field prime", types.ErrFieldOutOfRange, name)
	}
	return v, nil
}

func parseBounded(name, value string, parse func(string) (*big.Int, error), bits uint) (*big.Int, error) {
	v, err := parse(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFieldOutOfRange, name, err)
	}
	if err := checkWidth(name, v, bits); err != nil {
		return nil, err
	}
	return v, nil
}

func checkWidth(name string, v *big.Int, bits uint) error {
	if v.Sign() < 0 || v.BitLen() > int(bits) {
		return fmt.Errorf("%w: %s=%s exceeds %d bits", types.ErrFieldOutOfRange, name, v.String(), bits)
	}
	return nil
}

// pack returns acc<<bits | v
func pack(acc, v *big.Int, bits uint) *big.Int {
	res := new(big.Int).Lsh(acc, bits)
	return res.Or(res, v)
}
