package main

import (
	"context"
	"os"

	"github.com/Layr-Labs/arc-crypto-go/pkg/clients/awsKmsSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/Layr-Labs/arc-crypto-go/pkg/logger"
	"github.com/Layr-Labs/arc-crypto-go/pkg/session"
	"github.com/Layr-Labs/arc-crypto-go/pkg/signingWallet"
)

func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	ctx := context.Background()

	keyId := os.Getenv(config.EnvArcAWSKMSKeyID)
	if keyId == "" {
		l.Sugar().Fatalf("%s environment variable is not set", config.EnvArcAWSKMSKeyID)
	}

	signer, err := awsKmsSigner.NewSignerFromConfig(ctx, &config.AWSKMSConfig{
		KeyId:  keyId,
		Region: os.Getenv(config.EnvArcAWSRegion),
	}, l)
	if err != nil {
		l.Sugar().Fatalw("failed to load KMS key", "error", err)
	}

	s, err := session.NewBuilder(signingWallet.NewRemoteWallet(signer, l), l).Build(ctx)
	if err != nil {
		l.Sugar().Fatalw("failed to derive stark key", "error", err)
	}

	l.Sugar().Infow("KMS Key",
		"keyId", keyId,
		"address", signer.Address().Hex(),
		"starkKey", s.StarkKeyPair().PublicKeyHex(),
	)
}
