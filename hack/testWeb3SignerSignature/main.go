package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/Layr-Labs/arc-crypto-go/pkg/logger"
	"github.com/Layr-Labs/arc-crypto-go/pkg/session"
	"github.com/Layr-Labs/arc-crypto-go/pkg/signingWallet"
	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
)

// Derives the stark key once from a local key and once through a web3signer holding the
// same key. Both sessions must end up with the same stark key.
func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	ctx := context.Background()

	privateKeyStr := os.Getenv(config.EnvArcPrivateKey)

	privateKey, err := ecdsa.NewPrivateKeyFromHexString(privateKeyStr)
	if err != nil {
		l.Sugar().Fatalf("failed to parse private key: %v", err)
	}
	keyAddress, err := privateKey.DeriveAddress()
	if err != nil {
		l.Sugar().Fatalf("failed to derive address: %v", err)
	}

	localWallet, err := signingWallet.NewSigningWalletFromConfig(ctx, &config.WalletConfig{
		Type:            config.WalletType_Local,
		LocalPrivateKey: privateKeyStr,
	}, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create local wallet", "error", err)
	}
	if keyAddress != localWallet.GetAddress() {
		l.Sugar().Fatalw("local wallet address does not match the key",
			"keyAddress", keyAddress.Hex(),
			"walletAddress", localWallet.GetAddress().Hex(),
		)
	}

	remoteWallet, err := signingWallet.NewSigningWalletFromConfig(ctx, &config.WalletConfig{
		Type: config.WalletType_Web3Signer,
		RemoteSigner: &config.RemoteSignerConfig{
			Url:         "http://localhost:9100",
			FromAddress: localWallet.GetAddress().Hex(),
			PublicKey:   os.Getenv(config.EnvArcPublicKey),
		},
	}, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create web3signer wallet", "error", err)
	}

	localSession, err := session.NewBuilder(localWallet, l).Build(ctx)
	if err != nil {
		l.Sugar().Fatalw("failed to build local session", "error", err)
	}
	remoteSession, err := session.NewBuilder(remoteWallet, l).Build(ctx)
	if err != nil {
		l.Sugar().Fatalw("failed to build web3signer session", "error", err)
	}

	localKey := localSession.StarkKeyPair()
	remoteKey := remoteSession.StarkKeyPair()

	fmt.Printf("Address:                %s\n", localWallet.GetAddress().Hex())
	fmt.Printf("Stark key (local):      %s\n", localKey.PublicKeyHex())
	fmt.Printf("Stark key (web3signer): %s\n", remoteKey.PublicKeyHex())

	if localKey.PublicKey.Cmp(remoteKey.PublicKey) == 0 {
		fmt.Println("Stark keys match!")
	} else {
		fmt.Println("Stark keys do not match!")
	}
}
