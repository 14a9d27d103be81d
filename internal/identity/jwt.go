package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the provider-issued access token claims we rely on
type Claims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 access tokens locally with the provider's secret
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("token is missing sub or email")
	}

	fullName, _ := claims.UserMetadata["full_name"].(string)
	return &Identity{ID: claims.Subject, Email: claims.Email, FullName: fullName, Metadata: claims.UserMetadata}, nil
}

// SignToken issues a token the JWTVerifier accepts. Used by tests and local tooling.
func SignToken(secret string, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
