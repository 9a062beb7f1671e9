package aws

import (
	"context"
	"fmt"
	"os"

	arcConfig "github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// LoadKMSConfig loads the AWS config a KMS-backed wallet signs with. An explicit profile
// wins; otherwise AWS_PROFILE is used outside of Kubernetes, where pods rely on their
// service account credentials instead.
func LoadKMSConfig(ctx context.Context, kmsCfg *arcConfig.AWSKMSConfig) (aws.Config, error) {
	if kmsCfg == nil {
		return aws.Config{}, fmt.Errorf("AWS KMS config is nil")
	}

	var options []func(*config.LoadOptions) error
	if profile := resolveProfile(kmsCfg.Profile, isInKubernetes()); profile != "" {
		options = append(options, config.WithSharedConfigProfile(profile))
	}
	if kmsCfg.Region != "" {
		options = append(options, config.WithRegion(kmsCfg.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.Region == "" {
		return aws.Config{}, fmt.Errorf("no AWS region configured for KMS key %s", kmsCfg.KeyId)
	}
	return cfg, nil
}

func resolveProfile(explicit string, inKubernetes bool) string {
	if explicit != "" {
		return explicit
	}
	if inKubernetes {
		return ""
	}
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		return profile
	}
	return "default"
}

func isInKubernetes() bool {
	_, err := os.Stat(serviceAccountTokenPath)
	return err == nil
}

// CallerArn resolves the principal the KMS signer will act as
func CallerArn(ctx context.Context, cfg aws.Config) (string, error) {
	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return aws.ToString(identity.Arn), nil
}
