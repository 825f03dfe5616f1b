package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidToken is returned for any bearer token that cannot be verified:
// bad signature, malformed payload, wrong algorithm, or expired.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the payload carried by an API bearer token.
type TokenClaims struct {
	UserID   string `json:"userId"`
	ClientID string `json:"clientId"`
	jwt.RegisteredClaims
}

// BearerToken is the verified identity extracted from an Authorization header.
type BearerToken struct {
	UserID   primitive.ObjectID
	ClientID string
}

// TokenManager signs and verifies short-lived API bearer tokens (HS256).
// Tokens are an alternative credential to the session cookie, intended for
// non-browser clients; they carry the user ID and an opaque client
// identifier chosen by the caller.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager. ttl defaults to one hour when
// zero or negative.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, &SessionConfigError{Message: "token secret is empty; provide ≥32 random chars"}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports the lifetime applied to newly signed tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Sign issues a token for the given user and client. The clientId is not
// interpreted; it exists so callers can tell their own token issuances apart.
func (tm *TokenManager) Sign(userID primitive.ObjectID, clientID string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:   userID.Hex(),
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token string. All failure modes
// collapse into ErrInvalidToken; callers have no need to distinguish them.
func (tm *TokenManager) Verify(tokenString string) (*BearerToken, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &BearerToken{UserID: userID, ClientID: claims.ClientID}, nil
}
