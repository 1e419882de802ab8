package voice

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GrantSigner issues room access tokens.
type GrantSigner interface {
	SignGrant(identity, room string, ttl time.Duration) (token string, expiresAt time.Time, err error)
}

// VideoGrant is the room permission block of a media access token.
type VideoGrant struct {
	Room           string `json:"room"`
	RoomJoin       bool   `json:"roomJoin"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData"`
}

// AccessClaims are the claims of a media server access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
}

// JWTGrantSigner signs HS256 access tokens with the media server's API key pair.
type JWTGrantSigner struct {
	apiKey    string
	apiSecret []byte
	now       func() time.Time
}

var _ GrantSigner = (*JWTGrantSigner)(nil)

// NewJWTGrantSigner creates a signer for apiKey/apiSecret.
func NewJWTGrantSigner(apiKey, apiSecret string) (*JWTGrantSigner, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("voice api key and secret are required")
	}
	return &JWTGrantSigner{apiKey: apiKey, apiSecret: []byte(apiSecret), now: time.Now}, nil
}

// SignGrant returns a token admitting identity to room with publish,
// subscribe and data permissions until ttl elapses.
func (s *JWTGrantSigner) SignGrant(identity, room string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.apiKey,
			Subject:   identity,
			ID:        identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: identity,
		Video: VideoGrant{
			Room:           room,
			RoomJoin:       true,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.apiSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseGrant verifies token against the signer's secret and returns its claims.
func (s *JWTGrantSigner) ParseGrant(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.apiSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.apiKey),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
