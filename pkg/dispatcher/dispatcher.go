package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/Layr-Labs/arc-crypto-go/pkg/contractCaller"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Dispatcher runs OnChainAssetActions against an IContractCaller. Actions are independent;
// any number may execute concurrently.
type Dispatcher struct {
	caller contractCaller.IContractCaller
	logger *zap.Logger
}

func NewDispatcher(caller contractCaller.IContractCaller, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		caller: caller,
		logger: logger,
	}
}

// Execute drives action from Idle to Done or Failed. Variants with an approval stage only
// issue the execute call after the approval was mined successfully. Failures are not retried.
func (d *Dispatcher) Execute(ctx context.Context, action *OnChainAssetAction) error {
	if action == nil {
		return fmt.Errorf("action is nil")
	}

	if err := d.begin(action); err != nil {
		return err
	}

	log := d.logger.With(
		zap.String("actionId", action.Id().String()),
		zap.String("kind", string(action.Kind())),
		zap.String("variant", action.Variant()),
	)
	call := action.call

	if call.needsApproval() {
		log.Sugar().Infow("Requesting approval")
		receipt, err := call.approve(ctx, d.caller)
		if err != nil {
			return d.fail(action, log, "approval", err)
		}
		d.recordApproval(action, receipt)
		d.transition(action, ActionState_Executing)
	}

	log.Sugar().Infow("Executing on-chain call")
	receipt, err := call.execute(ctx, d.caller)
	if err != nil {
		return d.fail(action, log, "execute", err)
	}

	action.mu.Lock()
	if receipt != nil {
		action.executeTxHash = receipt.TxHash
	}
	action.state = ActionState_Done
	action.mu.Unlock()

	log.Sugar().Infow("On-chain action completed",
		zap.String("txHash", action.ExecuteTxHash().Hex()),
	)
	return nil
}

// begin claims an Idle action and moves it to its first working state
func (d *Dispatcher) begin(action *OnChainAssetAction) error {
	action.mu.Lock()
	defer action.mu.Unlock()

	if action.state != ActionState_Idle {
		return fmt.Errorf("%w: action %s is %s", types.ErrActionAlreadyUsed, action.id, action.state)
	}
	if action.call.needsApproval() {
		action.state = ActionState_Approving
	} else {
		action.state = ActionState_Executing
	}
	return nil
}

func (d *Dispatcher) transition(action *OnChainAssetAction, state ActionState) {
	action.mu.Lock()
	defer action.mu.Unlock()
	action.state = state
}

func (d *Dispatcher) recordApproval(action *OnChainAssetAction, receipt *ethTypes.Receipt) {
	if receipt == nil {
		return
	}
	action.mu.Lock()
	defer action.mu.Unlock()
	action.approvalTxHash = receipt.TxHash
}

func (d *Dispatcher) fail(action *OnChainAssetAction, log *zap.Logger, stage string, cause error) error {
	err := cause
	if !errors.Is(err, types.ErrContractCallReverted) && !errors.Is(err, types.ErrInvalidContractAddress) {
		err = fmt.Errorf("%w: %w", types.ErrContractCallReverted, cause)
	}
	err = fmt.Errorf("%s %s failed: %w", action.Variant(), stage, err)

	action.mu.Lock()
	action.state = ActionState_Failed
	action.err = err
	action.mu.Unlock()

	log.Error("On-chain action failed",
		zap.String("stage", stage),
		zap.Error(cause),
	)
	return err
}
