package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// AWSIAMTokenProvider builds RDS IAM authentication tokens using the default
// AWS credential chain (environment, shared config, instance or task role).
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string

	once  sync.Once
	creds aws.CredentialsProvider
	err   error
}

// NewAWSIAMTokenProvider creates a token provider for AWS RDS IAM authentication.
// endpoint is host:port of the RDS instance or cluster.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port)")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION)")
	}
	if username == "" {
		return nil, fmt.Errorf("AWS IAM auth requires database username")
	}

	return &AWSIAMTokenProvider{
		endpoint: endpoint,
		region:   region,
		username: username,
	}, nil
}

// GetToken signs a fresh token. The AWS config is loaded once per provider.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	p.once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
		if err != nil {
			p.err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		p.creds = cfg.Credentials
	})
	if p.err != nil {
		return "", time.Time{}, p.err
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, p.creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}

	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
