package ratelimit

import (
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// APIKeySubject extracts the rate-limit key string from a signed API key
// token. mcpcore's api_key identity hint may arrive as a bare opaque string
// or as a compact JWS; when it parses as the latter, the token's subject
// claim — not the raw token — is used as the client key, so a caller
// presenting the same identity under rotated tokens still lands in the same
// rate-limit bucket. verificationKey is the issuer's public key (or HMAC
// secret); a verification failure is returned as an error rather than
// falling back to the raw token, since an unverified subject would let a
// forged token claim any bucket.
func APIKeySubject(token string, verificationKey any) (string, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{
		jose.RS256, jose.ES256, jose.HS256,
	})
	if err != nil {
		return "", fmt.Errorf("ratelimit: api key is not a signed token: %w", err)
	}

	var claims jwt.Claims
	if err := parsed.Claims(verificationKey, &claims); err != nil {
		return "", fmt.Errorf("ratelimit: api key signature verification failed: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("ratelimit: api key token has no subject claim")
	}
	return claims.Subject, nil
}
