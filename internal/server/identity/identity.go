// Package identity supplies the credentials used to reach object storage and
// the database. Everything here is constructed once at startup and passed
// down explicitly; nothing registers process-wide state.
package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/dmitrijs2005/notsy/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newSTSClientFromConfig = func(cfg aws.Config, optFns ...func(*sts.Options)) stscreds.AssumeRoleAPIClient {
		return sts.NewFromConfig(cfg, optFns...)
	}
)

// Credentials returns the AWS credentials provider for the service.
//
// A role ARN in ClientID wins: the role is assumed on top of the default
// chain and the static keys are ignored. Without it, static keys are used
// when S3RootUser is set (MinIO and local setups), and the default chain
// otherwise.
func Credentials(ctx context.Context, c *config.Config) (aws.CredentialsProvider, error) {
	if c.ClientID == "" && c.S3RootUser != "" {
		return credentials.NewStaticCredentialsProvider(c.S3RootUser, c.S3RootPassword, ""), nil
	}

	cfg, err := loadDefaultAWSConfig(ctx, awsconfig.WithRegion(c.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("no aws credentials available")
	}

	provider := cfg.Credentials
	if c.ClientID != "" {
		provider = stscreds.NewAssumeRoleProvider(newSTSClientFromConfig(cfg), c.ClientID)
	}
	return aws.NewCredentialsCache(provider), nil
}
