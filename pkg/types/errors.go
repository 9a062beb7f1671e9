package types

import "errors"

var (
	// ErrInvalidSignatureMaterial is returned when an Ethereum signature cannot be parsed
	// into the 65 byte r||s||v layout needed for key derivation.
	ErrInvalidSignatureMaterial = errors.New("invalid signature material")

	// ErrInvalidKeyMaterial is returned when a STARK secret key is not in [1, EC_ORDER).
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrInvalidHashDomain is returned when a message hash is not below 2^251.
	ErrInvalidHashDomain = errors.New("hash is outside the signable domain")

	// ErrFieldOutOfRange is returned when a message field exceeds its declared bit width.
	ErrFieldOutOfRange = errors.New("field out of range")

	ErrMissingWallet = errors.New("no signing wallet bound")

	ErrUnsupportedDepositVariant  = errors.New("unsupported deposit variant")
	ErrUnsupportedWithdrawVariant = errors.New("unsupported withdraw variant")

	// ErrContractCallReverted wraps failures reported by the chain or the transaction signer.
	ErrContractCallReverted = errors.New("contract call reverted")

	// ErrActionAlreadyUsed is returned when a terminal on-chain action is executed again.
	ErrActionAlreadyUsed = errors.New("on-chain action already executed")

	ErrInvalidContractAddress = errors.New("invalid contract address")
)
