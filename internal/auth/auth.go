// Package auth implements header-based authentication shaping and the
// OAuth2 client-credentials lifecycle of spec.md §4.8, grounded on
// original_source/core/utils/api/request.py's oauth2/refresh_oauth2.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scheme names one header-shaping strategy.
type Scheme int

const (
	None Scheme = iota
	Bearer
	Basic
	APIKey
	HMAC
	JWT
)

// Header holds static auth configuration applied to every outbound request
// by RequestCore, independent of the OAuth2 lifecycle below.
type Header struct {
	Scheme      Scheme
	Token       string // Bearer token, or API key value
	Prefix      string // overrides the default "Bearer " prefix
	Username    string // Basic
	Password    string // Basic
	HeaderName  string // APIKey / HMAC header name
	Secret      string // HMAC signing secret
	JWTClaims   map[string]any
	JWTSecret   []byte
}

// Apply sets the Authorization (or custom) header on req per h.Scheme.
// JWT signs h.JWTClaims fresh on every call with HS256, matching the
// teacher's "compute once per send" style rather than caching a token.
func (h Header) Apply(req *http.Request, body []byte) error {
	switch h.Scheme {
	case None:
		return nil

	case Bearer:
		prefix := h.Prefix
		if prefix == "" {
			prefix = "Bearer"
		}
		req.Header.Set("Authorization", prefix+" "+h.Token)
		return nil

	case Basic:
		req.SetBasicAuth(h.Username, h.Password)
		return nil

	case APIKey:
		name := h.HeaderName
		if name == "" {
			name = "X-API-Key"
		}
		req.Header.Set(name, h.Token)
		return nil

	case HMAC:
		name := h.HeaderName
		if name == "" {
			name = "X-Signature"
		}
		req.Header.Set(name, signHMAC(h.Secret, body))
		return nil

	case JWT:
		tok, err := signJWT(h.JWTClaims, h.JWTSecret)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		return nil
	}
	return nil
}

func signHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signJWT(claims map[string]any, secret []byte) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	if _, ok := mc["iat"]; !ok {
		mc["iat"] = time.Now().Unix()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return tok.SignedString(secret)
}

// Manager tracks one OAuth2 client-credentials flow: the configuration
// needed to (re)issue a token, plus the live token and its expiry. The
// refresh triggered by an unauthenticated response is bound to at most
// once per pkg/httpclient RequestCore.Execute call, matching the
// Python original's explicit resolution of the infinite-refresh-loop risk
// flagged in spec.md §9's Open Questions: a call that keeps failing after
// one refresh must surface the failure rather than loop forever.
type Manager struct {
	ClientID     string
	ClientSecret string
	Endpoint     string
	Scope        string
	Grant        string
	TokenKey     string // stored as given; the token flow does not read it and always takes the token from envelope.AuthToken's search

	Token     string
	TokenType string
	expiry    time.Time
	now       func() time.Time
}

// NewManager builds a Manager for a client-credentials flow.
func NewManager(clientID, clientSecret, endpoint, scope, grant, tokenKey string) *Manager {
	if grant == "" {
		grant = "client_credentials"
	}
	if endpoint == "" {
		endpoint = "oauth2/token"
	}
	return &Manager{
		ClientID: clientID, ClientSecret: clientSecret, Endpoint: endpoint,
		Scope: scope, Grant: grant, TokenKey: tokenKey, now: time.Now,
	}
}

// Expired reports whether the cached token is missing or past its expiry.
func (m *Manager) Expired() bool {
	if m == nil || m.Token == "" {
		return true
	}
	if m.expiry.IsZero() {
		return false // no refresh_in was returned: token is treated as long-lived
	}
	return !m.now().Before(m.expiry)
}

// TokenRequest builds the Basic-auth POST body for the primary attempt:
// client_id/client_secret go in the Authorization header, the body carries
// only grant_type and scope.
func (m *Manager) TokenRequest() (header Header, form url.Values) {
	header = Header{Scheme: Basic, Username: m.ClientID, Password: m.ClientSecret}
	form = url.Values{"grant_type": {m.Grant}}
	if m.Scope != "" {
		form.Set("scope", m.Scope)
	}
	return header, form
}

// TokenRequestFallback builds the body-credentials fallback POST, tried
// exactly once when the Basic-auth attempt is not ok() (SPEC_FULL.md §12
// item 3): client_id/client_secret move into the body, no Authorization
// header is sent.
func (m *Manager) TokenRequestFallback() (header Header, form url.Values) {
	form = url.Values{
		"grant_type":    {m.Grant},
		"client_id":     {m.ClientID},
		"client_secret": {m.ClientSecret},
	}
	if m.Scope != "" {
		form.Set("scope", m.Scope)
	}
	return Header{}, form
}

// ApplyToken records a successful token response: token value, token_type
// (defaulting to "Bearer"), and expiry computed from refreshIn seconds (0
// means "no refresh tracked", matching oauth2()'s "else: self._oauth2 = {}").
func (m *Manager) ApplyToken(token, tokenType string, refreshIn int) {
	m.Token = token
	if tokenType == "" {
		tokenType = "Bearer"
	}
	m.TokenType = tokenType
	if refreshIn > 0 {
		m.expiry = m.now().Add(time.Duration(refreshIn) * time.Second)
	} else {
		m.expiry = time.Time{}
	}
}

// AuthHeader returns the Header a RequestCore should apply for the current
// cached token.
func (m *Manager) AuthHeader() Header {
	return Header{Scheme: Bearer, Token: m.Token, Prefix: m.TokenType}
}

// DefaultTokenKeys lists token field names commonly returned by token
// endpoints. Nothing in this module reads it: the OAuth flow takes the
// token from envelope.AuthToken, whose own search order is token,
// auth_token, access_token, oauth_token, bearer_token.
var DefaultTokenKeys = []string{"access_token", "auth_token", "token", "id_token", "jwt"}

// ParseExpiresIn reads an "expires_in" value that may arrive as a JSON
// number or a numeric string.
func ParseExpiresIn(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
