// Package session persists the credential triple as HttpOnly cookies and
// resolves a live identity token per request, renewing through the provider
// when the stored one has expired.
package session

import (
	"net/http"

	"github.com/lifeledger/lifeledger/internal/server/idp"
)

// Cookie names for the credential triple.
const (
	IDTokenCookie      = "ll_id_token"
	AccessTokenCookie  = "ll_access_token"
	RefreshTokenCookie = "ll_refresh_token"
)

// Cookie lifetimes in seconds. Identity and access tokens live about an
// hour, matching the pool's issuance; the refresh token thirty days.
const (
	idTokenMaxAge      = 60 * 60
	accessTokenMaxAge  = 60 * 60
	refreshTokenMaxAge = 60 * 60 * 24 * 30
)

// Triple is the credential set stored across the three cookies. Empty
// fields mean the corresponding cookie is absent.
type Triple struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// CookieStore writes and reads the triple as server-only cookies:
// HttpOnly, SameSite=Lax, path "/", Secure per config.
type CookieStore struct {
	secure bool
}

func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

func (s *CookieStore) write(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Set stores a full triple, as issued by a sign-in.
func (s *CookieStore) Set(w http.ResponseWriter, creds *idp.Credentials) {
	s.write(w, IDTokenCookie, creds.IDToken, idTokenMaxAge)
	s.write(w, AccessTokenCookie, creds.AccessToken, accessTokenMaxAge)
	s.write(w, RefreshTokenCookie, creds.RefreshToken, refreshTokenMaxAge)
}

// Renew overwrites only the identity and access cookies. The refresh cookie
// is retained verbatim: the provider does not rotate it on the renewal path.
func (s *CookieStore) Renew(w http.ResponseWriter, idToken, accessToken string) {
	s.write(w, IDTokenCookie, idToken, idTokenMaxAge)
	s.write(w, AccessTokenCookie, accessToken, accessTokenMaxAge)
}

// Read returns whatever triple the request carries.
func (s *CookieStore) Read(r *http.Request) Triple {
	var t Triple
	if c, err := r.Cookie(IDTokenCookie); err == nil {
		t.IDToken = c.Value
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		t.AccessToken = c.Value
	}
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		t.RefreshToken = c.Value
	}
	return t
}

// Clear expires all three cookies unconditionally.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	s.write(w, IDTokenCookie, "", -1)
	s.write(w, AccessTokenCookie, "", -1)
	s.write(w, RefreshTokenCookie, "", -1)
}
