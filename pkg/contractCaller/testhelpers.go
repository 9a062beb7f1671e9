package contractCaller

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecordedCall is one invocation captured by MockContractCallerStub
type RecordedCall struct {
	Method   string
	Contract common.Address
	Args     []interface{}
}

// MockContractCallerStub records every call in order and returns a successful receipt
// unless a failure was injected for the method.
type MockContractCallerStub struct {
	mu       sync.Mutex
	calls    []RecordedCall
	failures map[string]error
}

func NewMockContractCallerStub() *MockContractCallerStub {
	return &MockContractCallerStub{
		failures: make(map[string]error),
	}
}

// FailOn makes every subsequent call to method return err
func (m *MockContractCallerStub) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

// Calls returns a copy of the recorded calls
func (m *MockContractCallerStub) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedCall(nil), m.calls...)
}

// Methods returns the recorded method names in call order
func (m *MockContractCallerStub) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	methods := make([]string, len(m.calls))
	for i, c := range m.calls {
		methods[i] = c.Method
	}
	return methods
}

func (m *MockContractCallerStub) record(method string, contract common.Address, args ...interface{}) (*ethTypes.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, RecordedCall{Method: method, Contract: contract, Args: args})
	if err, ok := m.failures[method]; ok {
		return nil, err
	}

	txHash := common.BytesToHash(crypto.Keccak256([]byte(fmt.Sprintf("%s-%d", method, len(m.calls)))))
	return &ethTypes.Receipt{
		Status:      ethTypes.ReceiptStatusSuccessful,
		TxHash:      txHash,
		BlockNumber: big.NewInt(int64(len(m.calls))),
	}, nil
}

func (m *MockContractCallerStub) ApproveERC20(ctx context.Context, token common.Address, spender common.Address, amount *big.Int) (*ethTypes.Receipt, error) {
	return m.record("approve", token, spender, amount)
}

func (m *MockContractCallerStub) ApproveNft(ctx context.Context, token common.Address, spender common.Address, tokenId *big.Int) (*ethTypes.Receipt, error) {
	return m.record("approve", token, spender, tokenId)
}

func (m *MockContractCallerStub) SetApprovalForAll(ctx context.Context, token common.Address, operator common.Address, approved bool) (*ethTypes.Receipt, error) {
	return m.record("setApprovalForAll", token, operator, approved)
}

func (m *MockContractCallerStub) Deposit(ctx context.Context, operatorContract common.Address, starkKey *big.Int, assetType *big.Int, vaultId *big.Int, quantizedAmount *big.Int) (*ethTypes.Receipt, error) {
	return m.record("deposit", operatorContract, starkKey, assetType, vaultId, quantizedAmount)
}

func (m *MockContractCallerStub) DepositERC20(ctx context.Context, operatorContract common.Address, starkKey *big.Int, assetType *big.Int, vaultId *big.Int, quantizedAmount *big.Int) (*ethTypes.Receipt, error) {
	return m.record("depositERC20", operatorContract, starkKey, assetType, vaultId, quantizedAmount)
}

func (m *MockContractCallerStub) DepositNft(ctx context.Context, operatorContract common.Address, starkKey *big.Int, assetType *big.Int, vaultId *big.Int, tokenId *big.Int) (*ethTypes.Receipt, error) {
	return m.record("depositNft", operatorContract, starkKey, assetType, vaultId, tokenId)
}

func (m *MockContractCallerStub) DepositERC1155(ctx context.Context, operatorContract common.Address, starkKey *big.Int, assetType *big.Int, tokenId *big.Int, vaultId *big.Int, quantizedAmount *big.Int) (*ethTypes.Receipt, error) {
	return m.record("depositERC1155", operatorContract, starkKey, assetType, tokenId, vaultId, quantizedAmount)
}

func (m *MockContractCallerStub) Withdraw(ctx context.Context, operatorContract common.Address, ownerKey *big.Int, assetType *big.Int) (*ethTypes.Receipt, error) {
	return m.record("withdraw", operatorContract, ownerKey, assetType)
}

func (m *MockContractCallerStub) WithdrawWithTokenId(ctx context.Context, operatorContract common.Address, ownerKey *big.Int, assetType *big.Int, tokenId *big.Int) (*ethTypes.Receipt, error) {
	return m.record("withdrawWithTokenId", operatorContract, ownerKey, assetType, tokenId)
}

func (m *MockContractCallerStub) WithdrawAndMint(ctx context.Context, operatorContract common.Address, ownerKey *big.Int, assetType *big.Int, mintingBlob []byte) (*ethTypes.Receipt, error) {
	return m.record("withdrawAndMint", operatorContract, ownerKey, assetType, mintingBlob)
}

var _ IContractCaller = (*MockContractCallerStub)(nil)
