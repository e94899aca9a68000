// Package qrsig signs and verifies the payload embedded in login QR codes.
//
// The QR payload is a URI of the form
//
//	qrlink://handshake/{id}?sig={jwt}
//
// where the signature is an HS256 JWT over the handshake id and its expiry.
// The mobile client verifies the signature before resubmitting the id, which
// lets it reject QR codes not minted by this service without a round trip.
// The service itself never requires the signature on action endpoints; the
// handshake id alone drives the state machine.
package qrsig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Scheme = "qrlink"

var (
	ErrInvalidPayload   = errors.New("qrsig: invalid payload URI")
	ErrInvalidSignature = errors.New("qrsig: invalid signature")
)

// Claims carried inside the QR signature.
type Claims struct {
	jwt.RegisteredClaims

	// SessionID is the handshake id the signature covers.
	SessionID string `json:"sid"`
}

// Signer mints and verifies QR payload signatures with a symmetric key.
type Signer struct {
	key    []byte
	issuer string
}

func NewSigner(key []byte, issuer string) *Signer {
	return &Signer{key: key, issuer: issuer}
}

// Sign returns the HS256 signature token for a handshake id. The signature
// expires with the handshake, so a stale QR code fails verification offline.
func (s *Signer) Sign(sessionID string, expiresAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("qrsig: failed to sign payload: %w", err)
	}
	return signed, nil
}

// Verify checks the signature token and returns its claims.
func (s *Signer) Verify(signature string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(signature, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.key, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	if claims.SessionID == "" {
		return Claims{}, ErrInvalidSignature
	}
	return claims, nil
}

// PayloadURI builds the URI the QR code encodes.
func (s *Signer) PayloadURI(sessionID string, expiresAt time.Time) (string, error) {
	sig, err := s.Sign(sessionID, expiresAt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://handshake/%s?sig=%s", Scheme, url.PathEscape(sessionID), sig), nil
}

// ParsePayloadURI extracts the handshake id and signature from a QR payload.
// This is the mobile-client side of PayloadURI.
func ParsePayloadURI(payload string) (sessionID, sig string, err error) {
	u, err := url.Parse(payload)
	if err != nil || u.Scheme != Scheme || u.Host != "handshake" {
		return "", "", ErrInvalidPayload
	}

	sessionID = strings.TrimPrefix(u.Path, "/")
	sig = u.Query().Get("sig")
	if sessionID == "" || sig == "" {
		return "", "", ErrInvalidPayload
	}
	return sessionID, sig, nil
}
