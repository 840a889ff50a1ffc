package session

import (
	"net/http"
	"time"

	"github.com/lifeledger/lifeledger/internal/logging"
	"github.com/lifeledger/lifeledger/internal/server/idp"
	"github.com/lifeledger/lifeledger/internal/server/token"
)

// timeNow is a seam for tests.
var timeNow = time.Now

// Resolver produces a live identity token for a request. Callers never see a
// token known to be expired: either a renewed one comes back, or the cookie
// state is fully cleared and no session is reported.
type Resolver struct {
	cookies  *CookieStore
	provider idp.Provider
	logger   logging.Logger
}

func NewResolver(cookies *CookieStore, provider idp.Provider, logger logging.Logger) *Resolver {
	return &Resolver{cookies: cookies, provider: provider, logger: logger}
}

// Resolve reads the stored triple and returns decoded claims plus the raw
// identity token. A (nil, "") return means no session; that is an outcome,
// not an error.
//
// An expired identity token with a refresh token present triggers one
// renewal round trip. On success the identity and access cookies are
// overwritten atomically with the response (the refresh cookie stays
// untouched). On any renewal failure all three cookies are cleared rather
// than left partially stale.
func (rs *Resolver) Resolve(w http.ResponseWriter, r *http.Request) (*token.Claims, string) {
	ctx := r.Context()

	t := rs.cookies.Read(r)
	if t.IDToken == "" {
		return nil, ""
	}

	claims, err := token.Decode(t.IDToken)
	if err != nil {
		rs.logger.Warn(ctx, "stored identity token is malformed", "error", err)
		rs.cookies.Clear(w)
		return nil, ""
	}

	if !claims.Expired(timeNow()) {
		return claims, t.IDToken
	}

	if t.RefreshToken == "" {
		rs.cookies.Clear(w)
		return nil, ""
	}

	idToken, accessToken, err := rs.provider.Refresh(ctx, t.RefreshToken, claims.Username)
	if err != nil {
		rs.logger.Warn(ctx, "session renewal failed", "error", err)
		rs.cookies.Clear(w)
		return nil, ""
	}

	renewed, err := token.Decode(idToken)
	if err != nil {
		rs.logger.Error(ctx, "provider returned undecodable identity token", "error", err)
		rs.cookies.Clear(w)
		return nil, ""
	}

	rs.cookies.Renew(w, idToken, accessToken)
	return renewed, idToken
}
