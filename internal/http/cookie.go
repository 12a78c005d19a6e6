package http

import (
	"crypto/sha512"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookieName is the name of the cookie carrying the signed session id.
const SessionCookieName = "portal.sid"

// CookieConfig describes how the session cookie is issued.
type CookieConfig struct {
	Secret string
	TTL    time.Duration
	// Production marks the cookie Secure with SameSite=None for cross-site use.
	Production bool
	Domain     string
}

// SessionCookies signs session ids into the session cookie and reads them back.
// A cookie whose signature or timestamp does not verify is treated as absent.
type SessionCookies struct {
	codec *securecookie.SecureCookie
	cfg   CookieConfig
}

// NewSessionCookies builds the cookie codec. The HMAC key is derived from the secret.
func NewSessionCookies(cfg CookieConfig) *SessionCookies {
	key := sha512.Sum512([]byte(cfg.Secret))
	codec := securecookie.New(key[:], nil)
	if cfg.TTL > 0 {
		codec.MaxAge(int(cfg.TTL / time.Second))
	}
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &SessionCookies{codec: codec, cfg: cfg}
}

// Write issues the cookie for sessionID.
func (c *SessionCookies) Write(w http.ResponseWriter, sessionID string) error {
	encoded, err := c.codec.Encode(SessionCookieName, sessionID)
	if err != nil {
		return err
	}
	cookie := c.base()
	cookie.Value = encoded
	if c.cfg.TTL > 0 {
		cookie.MaxAge = int(c.cfg.TTL / time.Second)
		cookie.Expires = time.Now().Add(c.cfg.TTL).UTC()
	}
	http.SetCookie(w, cookie)
	return nil
}

// Read returns the verified session id carried by r.
func (c *SessionCookies) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var sessionID string
	if err := c.codec.Decode(SessionCookieName, cookie.Value, &sessionID); err != nil {
		return "", false
	}
	sessionID = strings.TrimSpace(sessionID)
	return sessionID, sessionID != ""
}

// Clear expires the cookie on the client.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (c *SessionCookies) base() *http.Cookie {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if c.cfg.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
