package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/maritime-school/training-admin/internal/config"
)

// ExternalIdentity is a user vouched for by an identity provider.
type ExternalIdentity struct {
	Email string
	Name  string
}

// IdentityVerifier exchanges an authorization code for an identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, code, state string) (*ExternalIdentity, error)
}

type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.OrganizationName, cfg.ApplicationName),
	}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, code, state string) (*ExternalIdentity, error) {
	token, err := v.client.GetOAuthToken(code, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	claims, err := v.client.ParseJwtToken(token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: identity has no email", ErrInvalidCredentials)
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.Name
	}
	return &ExternalIdentity{Email: email, Name: name}, nil
}
