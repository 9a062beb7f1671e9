package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/Layr-Labs/arc-crypto-go/pkg/logger"
	"github.com/Layr-Labs/arc-crypto-go/pkg/session"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
)

// Executes the deposit described by the JSON file in os.Args[1] with a session built from
// the ARC_* environment variables.
func main() {
	cfg, err := config.SessionConfigFromEnv()
	if err != nil {
		panic(err)
	}
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

	if len(os.Args) < 2 {
		l.Sugar().Fatal("usage: depositFromEnv <deposit-details.json>")
	}
	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		l.Sugar().Fatalw("failed to read deposit details", "error", err)
	}
	details := &types.DepositDetails{}
	if err := json.Unmarshal(raw, details); err != nil {
		l.Sugar().Fatalw("failed to parse deposit details", "error", err)
	}

	ctx := context.Background()
	s, err := session.NewSessionFromConfig(ctx, cfg, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create session", "error", err)
	}

	action, err := s.Deposit(ctx, details)
	if err != nil {
		l.Sugar().Fatalw("deposit failed", "error", err)
	}
	l.Sugar().Infow("Deposit complete",
		"actionId", action.Id().String(),
		"approvalTxHash", action.ApprovalTxHash().Hex(),
		"txHash", action.ExecuteTxHash().Hex(),
	)
}
