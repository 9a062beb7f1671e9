package types

import (
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// FeeInfo carries the optional fee terms of a limit order
type FeeInfo struct {
	FeeAssetId string `json:"assetFee"`     // hex, < field prime
	FeeVault   uint64 `json:"vaultChainId"` // uint31
	FeeLimit   string `json:"limit"`        // uint63, decimal
}

// LimitOrderMessage is a settlement order to be hashed and signed locally.
// A nil Fee selects the fee-less hash; the two variants never collide.
type LimitOrderMessage struct {
	SellVault   uint64   `json:"sellVaultChainId"`
	BuyVault    uint64   `json:"buyVaultChainId"`
	SellAmount  string   `json:"sellQuantizedAmount"`
	BuyAmount   string   `json:"buyQuantizedAmount"`
	SellAssetId string   `json:"assetSell"`
	BuyAssetId  string   `json:"assetBuy"`
	Nonce       uint64   `json:"nonce"`
	Expiration  uint64   `json:"expirationTimestamp"`
	Fee         *FeeInfo `json:"fee,omitempty"`
}

// TransferMessage wraps a protocol-canonical payload built by the settlement API
type TransferMessage struct {
	SignablePayload string `json:"signablePayload"`
}

// MarketplaceOrderMessage wraps a marketplace order payload built by the settlement API
type MarketplaceOrderMessage struct {
	SignablePayload string `json:"signablePayload"`
}

// RegistrationDetails is the EIP-712 registration payload served by the settlement API
// for a (username, starkKey, address) triple.
type RegistrationDetails struct {
	Username  string             `json:"username"`
	StarkKey  string             `json:"starkKey"`
	Address   string             `json:"address"`
	TypedData apitypes.TypedData `json:"typedData"`
}

// RegistrationClaim binds an EIP-712 signature and a STARK signature to one identity
type RegistrationClaim struct {
	Username        string          `json:"username"`
	StarkKey        string          `json:"starkKey"`
	Address         string          `json:"address"`
	EIP712Signature string          `json:"eip712Signature"`
	StarkSignature  *StarkSignature `json:"starkSignature"`
}

// DepositDetails describes an on-chain deposit prepared by the settlement API.
// Numeric fields are decimal or 0x prefixed hex strings.
type DepositDetails struct {
	DepositFunction         string `json:"depositFunction"`
	OperatorContractAddress string `json:"operatorContractAddress"`
	AssetContractAddress    string `json:"assetContractAddress,omitempty"`
	StarkKey                string `json:"starkKey"`
	AssetType               string `json:"assetType"`
	VaultId                 string `json:"vaultId"`
	Amount                  string `json:"amount,omitempty"`
	QuantizedAmount         string `json:"quantizedAmount,omitempty"`
	TokenId                 string `json:"tokenId,omitempty"`
}

// WithdrawDetails describes an on-chain withdrawal prepared by the settlement API
type WithdrawDetails struct {
	WithdrawFunction        string `json:"withdrawFunction"`
	OperatorContractAddress string `json:"operatorContractAddress"`
	StarkKey                string `json:"starkKey"`
	AssetType               string `json:"assetType"`
	TokenId                 string `json:"tokenId,omitempty"`
	MintingBlob             string `json:"mintingBlob,omitempty"`
}
