package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for session configuration
const (
	EnvArcRPCURL               = "ARC_RPC_URL"
	EnvArcChainID              = "ARC_CHAIN_ID"
	EnvArcKeyDerivationMessage = "ARC_KEY_DERIVATION_MESSAGE"
	EnvArcWalletType           = "ARC_WALLET_TYPE"
	EnvArcPrivateKey           = "ARC_PRIVATE_KEY"
	EnvArcWeb3SignerURL        = "ARC_WEB3SIGNER_URL"
	EnvArcFromAddress          = "ARC_FROM_ADDRESS"
	EnvArcPublicKey            = "ARC_PUBLIC_KEY"
	EnvArcAWSKMSKeyID          = "ARC_AWS_KMS_KEY_ID"
	EnvArcAWSRegion            = "ARC_AWS_REGION"
	EnvArcAWSProfile           = "ARC_AWS_PROFILE"
	EnvArcDebug                = "ARC_DEBUG"
)

// DefaultKeyDerivationMessage is signed by the wallet to seed the STARK keypair
const DefaultKeyDerivationMessage = "Only sign this request if you've initiated an action with Arc."

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumGoerli  ChainId = 5
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumGoerli  ChainName = "goerli"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumGoerli:  ChainName_EthereumGoerli,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumGoerli:  ChainId_EthereumGoerli,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// IsEthereum reports whether chainId is an Ethereum L1 network (including local forks)
func IsEthereum(chainId ChainId) bool {
	_, ok := ChainIdToName[chainId]
	return ok
}

// GetSupportedChainIDs returns all supported chain IDs
func GetSupportedChainIDs() []ChainId {
	return []ChainId{
		ChainId_EthereumMainnet,
		ChainId_EthereumGoerli,
		ChainId_EthereumSepolia,
		ChainId_EthereumAnvil,
	}
}

// GetSupportedChainIDsString returns supported chain IDs as strings for error messages
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (goerli), %d (sepolia), %d (anvil)",
		ChainId_EthereumMainnet, ChainId_EthereumGoerli, ChainId_EthereumSepolia, ChainId_EthereumAnvil)
}

type WalletType string

const (
	WalletType_Local      WalletType = "local"
	WalletType_Web3Signer WalletType = "web3signer"
	WalletType_AWSKMS     WalletType = "awskms"
)

// SessionConfig is everything needed to open a signing session against a chain
type SessionConfig struct {
	ChainID              ChainId       `json:"chainId" yaml:"chainId"`
	RpcUrl               string        `json:"rpcUrl" yaml:"rpcUrl"`
	KeyDerivationMessage string        `json:"keyDerivationMessage" yaml:"keyDerivationMessage"`
	Debug                bool          `json:"debug" yaml:"debug"`
	Wallet               *WalletConfig `json:"wallet" yaml:"wallet"`
}

func (c *SessionConfig) Validate() error {
	var allErrors field.ErrorList
	if _, ok := ChainIdToName[c.ChainID]; !ok {
		allErrors = append(allErrors, field.Invalid(field.NewPath("chainId"), c.ChainID, "supported: "+GetSupportedChainIDsString()))
	}
	if c.RpcUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "rpcUrl is required"))
	}
	if c.Wallet == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("wallet"), "wallet is required"))
	} else {
		allErrors = append(allErrors, c.Wallet.validate(field.NewPath("wallet"))...)
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// GetKeyDerivationMessage returns the configured message or the default one
func (c *SessionConfig) GetKeyDerivationMessage() string {
	if c.KeyDerivationMessage == "" {
		return DefaultKeyDerivationMessage
	}
	return c.KeyDerivationMessage
}

// WalletConfig selects one wallet backend. Only the block matching Type is read.
type WalletConfig struct {
	Type            WalletType          `json:"type" yaml:"type"`
	LocalPrivateKey string              `json:"localPrivateKey,omitempty" yaml:"localPrivateKey,omitempty"`
	RemoteSigner    *RemoteSignerConfig `json:"remoteSigner,omitempty" yaml:"remoteSigner,omitempty"`
	AWSKMS          *AWSKMSConfig       `json:"awsKms,omitempty" yaml:"awsKms,omitempty"`
}

func (wc *WalletConfig) Validate() error {
	if allErrors := wc.validate(nil); len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (wc *WalletConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch wc.Type {
	case WalletType_Local:
		key := strings.TrimPrefix(wc.LocalPrivateKey, "0x")
		if key == "" {
			allErrors = append(allErrors, field.Required(path.Child("localPrivateKey"), "localPrivateKey is required for a local wallet"))
		} else if len(key) != 64 {
			allErrors = append(allErrors, field.Invalid(path.Child("localPrivateKey"), "<redacted>", "must be 32 bytes (64 hex chars)"))
		}
	case WalletType_Web3Signer:
		if wc.RemoteSigner == nil {
			allErrors = append(allErrors, field.Required(path.Child("remoteSigner"), "remoteSigner is required for a web3signer wallet"))
		} else {
			allErrors = append(allErrors, wc.RemoteSigner.validate(path.Child("remoteSigner"))...)
		}
	case WalletType_AWSKMS:
		if wc.AWSKMS == nil {
			allErrors = append(allErrors, field.Required(path.Child("awsKms"), "awsKms is required for an AWS KMS wallet"))
		} else {
			allErrors = append(allErrors, wc.AWSKMS.validate(path.Child("awsKms"))...)
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), wc.Type,
			[]WalletType{WalletType_Local, WalletType_Web3Signer, WalletType_AWSKMS}))
	}
	return allErrors
}

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`
	PublicKey   string `json:"publicKey" yaml:"publicKey"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	if allErrors := rsc.validate(nil); len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (rsc *RemoteSignerConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	if rsc.FromAddress == "" {
		allErrors = append(allErrors, field.Required(path.Child("fromAddress"), "fromAddress is required"))
	} else if !common.IsHexAddress(rsc.FromAddress) {
		allErrors = append(allErrors, field.Invalid(path.Child("fromAddress"), rsc.FromAddress, "must be a hex address"))
	}
	if rsc.PublicKey == "" {
		allErrors = append(allErrors, field.Required(path.Child("publicKey"), "publicKey is required"))
	}
	return allErrors
}

// AWSKMSConfig selects a KMS key. Region and Profile fall back to the AWS SDK defaults.
type AWSKMSConfig struct {
	KeyId   string `json:"keyId" yaml:"keyId"`
	Region  string `json:"region" yaml:"region"`
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

func (c *AWSKMSConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	if c.KeyId == "" {
		allErrors = append(allErrors, field.Required(path.Child("keyId"), "keyId is required"))
	}
	return allErrors
}

// SessionConfigFromEnv reads a SessionConfig from the ARC_* environment variables.
// The result still needs to be validated.
func SessionConfigFromEnv() (*SessionConfig, error) {
	cfg := &SessionConfig{
		RpcUrl:               os.Getenv(EnvArcRPCURL),
		KeyDerivationMessage: os.Getenv(EnvArcKeyDerivationMessage),
		Debug:                os.Getenv(EnvArcDebug) == "true",
	}

	if chainIdStr := os.Getenv(EnvArcChainID); chainIdStr != "" {
		chainId, err := strconv.ParseUint(chainIdStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvArcChainID, chainIdStr, err)
		}
		cfg.ChainID = ChainId(chainId)
	}

	walletType := WalletType(os.Getenv(EnvArcWalletType))
	if walletType == "" {
		walletType = WalletType_Local
	}
	cfg.Wallet = &WalletConfig{Type: walletType}
	switch walletType {
	case WalletType_Local:
		cfg.Wallet.LocalPrivateKey = os.Getenv(EnvArcPrivateKey)
	case WalletType_Web3Signer:
		cfg.Wallet.RemoteSigner = &RemoteSignerConfig{
			Url:         os.Getenv(EnvArcWeb3SignerURL),
			FromAddress: os.Getenv(EnvArcFromAddress),
			PublicKey:   os.Getenv(EnvArcPublicKey),
		}
	case WalletType_AWSKMS:
		cfg.Wallet.AWSKMS = &AWSKMSConfig{
			KeyId:   os.Getenv(EnvArcAWSKMSKeyID),
			Region:  os.Getenv(EnvArcAWSRegion),
			Profile: os.Getenv(EnvArcAWSProfile),
		}
	}
	return cfg, nil
}
