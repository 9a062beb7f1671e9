package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func Test_SessionConfig(t *testing.T) {
	t.Run("Should validate a local wallet session", func(t *testing.T) {
		cfg := &SessionConfig{
			ChainID: ChainId_EthereumSepolia,
			RpcUrl:  "http://localhost:8545",
			Wallet: &WalletConfig{
				Type:            WalletType_Local,
				LocalPrivateKey: testPrivateKey,
			},
		}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultKeyDerivationMessage, cfg.GetKeyDerivationMessage())
	})

	t.Run("Should aggregate every invalid field", func(t *testing.T) {
		cfg := &SessionConfig{
			ChainID: 999,
			Wallet: &WalletConfig{
				Type:         WalletType_Web3Signer,
				RemoteSigner: &RemoteSignerConfig{FromAddress: "not-an-address"},
			},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chainId")
		assert.Contains(t, err.Error(), "rpcUrl")
		assert.Contains(t, err.Error(), "wallet.remoteSigner.fromAddress")
		assert.Contains(t, err.Error(), "wallet.remoteSigner.publicKey")
	})

	t.Run("Should never echo the private key", func(t *testing.T) {
		cfg := &WalletConfig{Type: WalletType_Local, LocalPrivateKey: "0xdeadbeef"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "deadbeef")
	})

	t.Run("Should reject an unknown wallet type", func(t *testing.T) {
		err := (&WalletConfig{Type: "ledger"}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type")
	})

	t.Run("Should require a key id for AWS KMS", func(t *testing.T) {
		err := (&WalletConfig{Type: WalletType_AWSKMS, AWSKMS: &AWSKMSConfig{Region: "us-east-1"}}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keyId")
	})
}

func Test_SessionConfigFromEnv(t *testing.T) {
	t.Run("Should read a web3signer session", func(t *testing.T) {
		t.Setenv(EnvArcRPCURL, "http://localhost:8545")
		t.Setenv(EnvArcChainID, "31337")
		t.Setenv(EnvArcWalletType, string(WalletType_Web3Signer))
		t.Setenv(EnvArcWeb3SignerURL, "http://localhost:9000")
		t.Setenv(EnvArcFromAddress, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
		t.Setenv(EnvArcPublicKey, "0x04abcd")

		cfg, err := SessionConfigFromEnv()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, ChainId_EthereumAnvil, cfg.ChainID)
		assert.Equal(t, "http://localhost:9000", cfg.Wallet.RemoteSigner.Url)
	})

	t.Run("Should default to a local wallet", func(t *testing.T) {
		t.Setenv(EnvArcRPCURL, "http://localhost:8545")
		t.Setenv(EnvArcChainID, "1")
		t.Setenv(EnvArcWalletType, "")
		t.Setenv(EnvArcPrivateKey, testPrivateKey)

		cfg, err := SessionConfigFromEnv()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, WalletType_Local, cfg.Wallet.Type)
	})

	t.Run("Should read an AWS KMS wallet", func(t *testing.T) {
		t.Setenv(EnvArcRPCURL, "http://localhost:8545")
		t.Setenv(EnvArcChainID, "11155111")
		t.Setenv(EnvArcWalletType, string(WalletType_AWSKMS))
		t.Setenv(EnvArcAWSKMSKeyID, "alias/arc-signer")
		t.Setenv(EnvArcAWSRegion, "us-east-1")
		t.Setenv(EnvArcAWSProfile, "signing")

		cfg, err := SessionConfigFromEnv()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, &AWSKMSConfig{KeyId: "alias/arc-signer", Region: "us-east-1", Profile: "signing"}, cfg.Wallet.AWSKMS)
	})

	t.Run("Should fail on a malformed chain id", func(t *testing.T) {
		t.Setenv(EnvArcChainID, "mainnet")
		_, err := SessionConfigFromEnv()
		assert.Error(t, err)
	})
}
