package transcription

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nikhilbhutani/videoscribe/internal/provider"
)

type tokenIssuer interface {
	IssueToken(ctx context.Context, clientID, clientSecret string) (*provider.TokenResponse, error)
}

// CredentialProvider exchanges client credentials for an AccessToken. It
// does not retry and does not cache.
type CredentialProvider struct {
	client tokenIssuer
	now    func() time.Time
}

func NewCredentialProvider(client tokenIssuer) *CredentialProvider {
	return &CredentialProvider{client: client, now: time.Now}
}

func (p *CredentialProvider) FetchToken(ctx context.Context, clientID, clientSecret string) (AccessToken, error) {
	if clientID == "" || clientSecret == "" {
		return AccessToken{}, newStageError(StageAuth, ErrAuth, errors.New("client id and secret required"))
	}

	resp, err := p.client.IssueToken(ctx, clientID, clientSecret)
	if err != nil {
		return AccessToken{}, newStageError(StageAuth, ErrAuth, err)
	}
	if resp.AccessToken == "" {
		return AccessToken{}, newStageError(StageAuth, ErrAuth, errors.New("token response has no access_token"))
	}

	tok := AccessToken{Value: resp.AccessToken}
	if resp.ExpiresIn > 0 {
		tok.ExpiresAt = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	} else {
		tok.ExpiresAt = jwtExpiry(resp.AccessToken)
	}
	return tok, nil
}

// jwtExpiry reads the exp claim of a JWT without verifying it; the token is
// only inspected here, the provider does the verification. Opaque tokens
// yield the zero time.
func jwtExpiry(raw string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
