package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lucasjones/reggen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomToken generates a plausible bearer-token-shaped fixture, the way
// the teacher's internal/attacker/variables.go uses reggen for synthetic
// request data instead of hard-coded literals.
func randomToken(t *testing.T) string {
	t.Helper()
	tok, err := reggen.Generate(`[A-Za-z0-9_-]{20,40}`, 40)
	require.NoError(t, err)
	return tok
}

func TestHeaderApplyBearer(t *testing.T) {
	tok := randomToken(t)
	h := Header{Scheme: Bearer, Token: tok}

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, h.Apply(req, nil))

	assert.Equal(t, "Bearer "+tok, req.Header.Get("Authorization"))
}

func TestHeaderApplyBearerCustomPrefix(t *testing.T) {
	tok := randomToken(t)
	h := Header{Scheme: Bearer, Token: tok, Prefix: "Token"}

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, h.Apply(req, nil))

	assert.Equal(t, "Token "+tok, req.Header.Get("Authorization"))
}

func TestHeaderApplyBasic(t *testing.T) {
	h := Header{Scheme: Basic, Username: "client", Password: "secret"}

	req := httptest.NewRequest(http.MethodPost, "http://example.test/oauth2/token", nil)
	require.NoError(t, h.Apply(req, nil))

	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "client", user)
	assert.Equal(t, "secret", pass)
}

func TestHeaderApplyHMACIsDeterministicForSameSecretAndBody(t *testing.T) {
	h := Header{Scheme: HMAC, Secret: "shh"}
	body := []byte(`{"a":1}`)

	req1 := httptest.NewRequest(http.MethodPost, "http://example.test/", nil)
	req2 := httptest.NewRequest(http.MethodPost, "http://example.test/", nil)
	require.NoError(t, h.Apply(req1, body))
	require.NoError(t, h.Apply(req2, body))

	assert.Equal(t, req1.Header.Get("X-Signature"), req2.Header.Get("X-Signature"))
	assert.NotEmpty(t, req1.Header.Get("X-Signature"))
}

func TestManagerTokenRequestUsesBasicAuthOnPrimaryAttempt(t *testing.T) {
	m := NewManager("id", "secret", "", "", "", "")
	header, form := m.TokenRequest()

	assert.Equal(t, Basic, header.Scheme)
	assert.Equal(t, "client_credentials", form.Get("grant_type"))
	assert.Empty(t, form.Get("client_id"))
}

func TestManagerTokenRequestFallbackMovesCredentialsToBody(t *testing.T) {
	m := NewManager("id", "secret", "", "read write", "client_credentials", "")
	header, form := m.TokenRequestFallback()

	assert.Equal(t, None, header.Scheme)
	assert.Equal(t, "id", form.Get("client_id"))
	assert.Equal(t, "secret", form.Get("client_secret"))
	assert.Equal(t, "read write", form.Get("scope"))
}

func TestManagerApplyTokenWithRefreshInTracksExpiry(t *testing.T) {
	m := NewManager("id", "secret", "", "", "", "")
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	tok := randomToken(t)
	m.ApplyToken(tok, "", 3600)

	assert.Equal(t, tok, m.Token)
	assert.Equal(t, "Bearer", m.TokenType)
	assert.False(t, m.Expired())

	m.now = func() time.Time { return fixed.Add(2 * time.Hour) }
	assert.True(t, m.Expired())
}

func TestManagerApplyTokenWithoutRefreshInNeverExpires(t *testing.T) {
	m := NewManager("id", "secret", "", "", "", "")
	m.ApplyToken(randomToken(t), "Token", 0)

	assert.False(t, m.Expired())
}

func TestManagerExpiredWithNoTokenYet(t *testing.T) {
	m := NewManager("id", "secret", "", "", "", "")
	assert.True(t, m.Expired())
}

func TestManagerAuthHeaderReflectsCachedTokenType(t *testing.T) {
	m := NewManager("id", "secret", "", "", "", "")
	m.ApplyToken("abc", "MAC", 0)

	h := m.AuthHeader()
	assert.Equal(t, Bearer, h.Scheme)
	assert.Equal(t, "MAC", h.Prefix)
	assert.Equal(t, "abc", h.Token)
}

func TestParseExpiresIn(t *testing.T) {
	assert.Equal(t, 3600, ParseExpiresIn("3600"))
	assert.Equal(t, 0, ParseExpiresIn("not-a-number"))
	assert.Equal(t, 0, ParseExpiresIn(""))
}
