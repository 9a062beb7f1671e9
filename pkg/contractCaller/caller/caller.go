package caller

import (
	"fmt"

	"github.com/Layr-Labs/arc-crypto-go/pkg/transactionSigner"
	"github.com/Layr-Labs/chain-indexer/pkg/clients/ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"go.uber.org/zap"
)

// ContractCaller issues StarkExchange and token contract calls through an ITransactionSigner
type ContractCaller struct {
	backend bind.ContractBackend
	signer  transactionSigner.ITransactionSigner
	logger  *zap.Logger
	abis    *contractABIs
}

// NewContractCallerFromEthereumClient dials ethClient's RPC endpoint for the contract backend
func NewContractCallerFromEthereumClient(
	ethClient *ethereum.EthereumClient,
	signer transactionSigner.ITransactionSigner,
	logger *zap.Logger,
) (*ContractCaller, error) {
	if ethClient == nil {
		return nil, fmt.Errorf("ethereum client is required")
	}
	client, err := ethClient.GetEthereumContractCaller()
	if err != nil {
		return nil, fmt.Errorf("failed to get Ethereum contract caller: %w", err)
	}

	return NewContractCaller(client, signer, logger)
}

// NewContractCaller creates a caller. backend may be nil: transactions are assembled from
// the signer's transact opts and never sent through the bound contract.
func NewContractCaller(
	backend bind.ContractBackend,
	signer transactionSigner.ITransactionSigner,
	logger *zap.Logger,
) (*ContractCaller, error) {
	if signer == nil {
		return nil, fmt.Errorf("transaction signer is required")
	}

	abis, err := parseContractABIs()
	if err != nil {
		return nil, err
	}

	logger.Sugar().Debugw("Created contract caller",
		zap.String("from", signer.GetFromAddress().Hex()),
	)

	return &ContractCaller{
		backend: backend,
		signer:  signer,
		logger:  logger,
		abis:    abis,
	}, nil
}
