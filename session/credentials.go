package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// NewCredentials builds the durable credential record from the login response.
// When the access token is a JWT its exp claim becomes the token expiry.
func NewCredentials(accessToken, refreshToken string) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := AccessTokenExpiry(accessToken); ok {
		tok.Expiry = exp
	}
	return tok
}

// AccessTokenExpiry reads the exp claim without verifying the signature. The
// backend remains the authority on validity; this is only used for display
// and for skipping requests with an obviously expired token.
func AccessTokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token carries an expiry that has passed.
// Tokens without a known expiry never count as expired.
func Expired(tok *oauth2.Token, now time.Time) bool {
	if tok == nil || tok.Expiry.IsZero() {
		return false
	}
	return !now.Before(tok.Expiry)
}
