package caller

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	//go:embed abis/StarkExchange.json
	starkExchangeABIJson string

	//go:embed abis/ERC20.json
	erc20ABIJson string

	//go:embed abis/ERC721.json
	erc721ABIJson string

	//go:embed abis/ERC1155.json
	erc1155ABIJson string
)

// quantizedDepositSig is the nonpayable deposit overload taking a quantized amount
const quantizedDepositSig = "deposit(uint256,uint256,uint256,uint256)"

// contractABIs holds the parsed entry points the caller can invoke
type contractABIs struct {
	starkExchange abi.ABI
	erc20         abi.ABI
	erc721        abi.ABI
	erc1155       abi.ABI

	// quantizedDeposit is the key of the quantizedDepositSig overload in starkExchange.Methods
	quantizedDeposit string
}

// methodNameBySig returns the key go-ethereum assigned to sig. Overloads share a raw
// name, so all but the first are renamed on parse.
func methodNameBySig(contractABI abi.ABI, sig string) (string, error) {
	for name, method := range contractABI.Methods {
		if method.Sig == sig {
			return name, nil
		}
	}
	return "", fmt.Errorf("ABI has no method %s", sig)
}

func parseContractABIs() (*contractABIs, error) {
	parse := func(name, raw string) (abi.ABI, error) {
		parsed, err := abi.JSON(strings.NewReader(raw))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse %s ABI: %w", name, err)
		}
		return parsed, nil
	}

	starkExchange, err := parse("StarkExchange", starkExchangeABIJson)
	if err != nil {
		return nil, err
	}
	erc20, err := parse("ERC20", erc20ABIJson)
	if err != nil {
		return nil, err
	}
	erc721, err := parse("ERC721", erc721ABIJson)
	if err != nil {
		return nil, err
	}
	erc1155, err := parse("ERC1155", erc1155ABIJson)
	if err != nil {
		return nil, err
	}

	quantizedDeposit, err := methodNameBySig(starkExchange, quantizedDepositSig)
	if err != nil {
		return nil, err
	}

	return &contractABIs{
		starkExchange:    starkExchange,
		erc20:            erc20,
		erc721:           erc721,
		erc1155:          erc1155,
		quantizedDeposit: quantizedDeposit,
	}, nil
}
