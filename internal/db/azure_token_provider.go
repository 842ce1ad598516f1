package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AzureTokenProvider acquires Entra ID tokens scoped to Azure Database for
// PostgreSQL from any azcore credential.
type AzureTokenProvider struct {
	credential  azcore.TokenCredential
	description string
}

// NewAzureServicePrincipalProvider authenticates with a client secret.
// This is the usual choice for CI pipelines.
func NewAzureServicePrincipalProvider(tenantID, clientID, clientSecret string) (*AzureTokenProvider, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("azure service principal requires tenantID, clientID, and clientSecret")
	}

	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return &AzureTokenProvider{
		credential:  cred,
		description: fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", tenantID, clientID),
	}, nil
}

// NewAzureDefaultCredentialProvider uses the DefaultAzureCredential chain:
// environment, workload identity, managed identity, then developer CLIs.
func NewAzureDefaultCredentialProvider() (*AzureTokenProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}

	return &AzureTokenProvider{
		credential:  cred,
		description: "AzureDefaultCredential",
	}, nil
}

func (p *AzureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureTokenProvider) String() string {
	return p.description
}
