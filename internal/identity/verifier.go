package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a bearer token that failed verification.
var ErrInvalidToken = errors.New("invalid bearer token")

// Verifier turns a raw bearer token into a Caller.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Caller, error)
}

// New builds the Verifier selected by cfg. Mode none returns a nil Verifier,
// under which every request is anonymous.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (Verifier, error) {
	logger = logger.With("system", "identity")

	switch cfg.Mode {
	case ModeHMAC:
		logger.Info("verifying hmac bearer tokens", "claim", cfg.UsernameClaim)
		return NewHMACVerifier([]byte(cfg.Secret), cfg.Issuer, cfg.Audience, cfg.UsernameClaim), nil
	case ModeOIDC:
		keySet, err := oidcKeySet(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("verifying oidc bearer tokens", "issuer", cfg.Issuer, "claim", cfg.UsernameClaim)
		return NewOIDCVerifier(cfg.Issuer, cfg.Audience, cfg.UsernameClaim, keySet), nil
	default:
		logger.Warn("bearer token verification disabled; all requests are anonymous")
		return nil, nil
	}
}

func oidcKeySet(ctx context.Context, cfg *Config) (oidc.KeySet, error) {
	if cfg.JWKSURL != "" {
		return oidc.NewRemoteKeySet(ctx, cfg.JWKSURL), nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	var meta struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("oidc discovery claims: %w", err)
	}
	return oidc.NewRemoteKeySet(ctx, meta.JWKSURL), nil
}

type hmacVerifier struct {
	secret []byte
	claim  string
	opts   []jwt.ParserOption
}

// NewHMACVerifier verifies HS256/HS384/HS512 tokens signed with secret.
// Empty issuer or audience skips that check. Tokens must carry exp.
func NewHMACVerifier(secret []byte, issuer, audience, claim string) Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &hmacVerifier{secret: secret, claim: claim, opts: opts}
}

func (v *hmacVerifier) Verify(_ context.Context, raw string) (Caller, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return callerFromClaims(claims, v.claim)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
	claim    string
}

// NewOIDCVerifier verifies ID tokens issued by issuer and signed by a key in
// keySet. An empty clientID skips the audience check.
func NewOIDCVerifier(issuer, clientID, claim string, keySet oidc.KeySet) Verifier {
	cfg := &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	}
	return &oidcVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, cfg),
		claim:    claim,
	}
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (Caller, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := map[string]any{}
	if err := token.Claims(&claims); err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return callerFromClaims(claims, v.claim)
}

func callerFromClaims(claims map[string]any, name string) (Caller, error) {
	username, _ := claims[name].(string)
	if username == "" {
		return Caller{}, fmt.Errorf("%w: missing %q claim", ErrInvalidToken, name)
	}
	return Caller{Username: username}, nil
}
