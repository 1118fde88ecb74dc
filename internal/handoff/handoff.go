// Package handoff signs the short-lived ticket a relying application receives
// after its credentials are validated. The ticket lets the browser open a
// capture stream bound to that application.
package handoff

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 10 * time.Minute

var (
	// ErrInvalidTicket is returned when ticket validation fails
	ErrInvalidTicket = errors.New("invalid hand-off ticket")
	// ErrExpiredTicket is returned when the ticket is expired
	ErrExpiredTicket = errors.New("hand-off ticket expired")
)

// Claims binds a ticket to one application and its registered redirect
type Claims struct {
	ApplicationID uuid.UUID `json:"app_id"`
	RedirectURL   string    `json:"redirect_url"`
	jwt.RegisteredClaims
}

// Signer issues and validates hand-off tickets (HS256)
type Signer struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

func NewSigner(secretKey, issuer string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue returns a signed ticket and its expiration
func (s *Signer) Issue(appID uuid.UUID, redirectURL string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	claims := Claims{
		ApplicationID: appID,
		RedirectURL:   redirectURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   appID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Validate parses ticket and checks signature, issuer and expiry
func (s *Signer) Validate(ticket string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(ticket, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidTicket
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredTicket
		}
		return nil, ErrInvalidTicket
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ApplicationID == uuid.Nil {
		return nil, ErrInvalidTicket
	}

	return claims, nil
}
