package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Amr-9/corehttp/internal/auth"
	"github.com/Amr-9/corehttp/internal/envelope"
)

// runOAuthFlow performs one client-credentials token (re)issue: the primary
// Basic-auth attempt, falling back to the body-credentials form exactly
// once if the primary attempt is not ok (SPEC_FULL.md §12 item 3), then
// records the token on mgr.
func runOAuthFlow(ctx context.Context, client *http.Client, mgr *auth.Manager) error {
	if mgr == nil {
		return fmt.Errorf("httpclient: oauth2 not configured")
	}

	header, form := mgr.TokenRequest()
	env, err := postTokenRequest(ctx, client, mgr.Endpoint, header, form)
	if err != nil || env.Failed() {
		fallbackHeader, fallbackForm := mgr.TokenRequestFallback()
		env, err = postTokenRequest(ctx, client, mgr.Endpoint, fallbackHeader, fallbackForm)
		if err != nil {
			return err
		}
		if env.Failed() {
			return fmt.Errorf("httpclient: oauth2 token request failed with status %d", env.Status)
		}
	}

	token, ok := env.AuthToken()
	if !ok {
		return fmt.Errorf("httpclient: oauth2 response carried no recognizable token field")
	}

	tokenType, _ := firstString(env, "token_type")
	refreshIn := 0
	if raw, ok := firstString(env, "expires_in"); ok {
		refreshIn = auth.ParseExpiresIn(raw)
	}

	mgr.ApplyToken(token, tokenType, refreshIn)
	return nil
}

func postTokenRequest(ctx context.Context, client *http.Client, endpoint string, header auth.Header, form url.Values) (*envelope.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := header.Apply(req, nil); err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return envelope.New(resp.StatusCode, resp.Header, body), nil
}

// firstString reads a string (or numeric) field off the token response
// through FindMetaItem, a case-insensitive deep search of the body (or of
// its meta object, when it has one); token_type/expires_in aren't
// pagination aliases, so the key itself is searched for.
func firstString(env *envelope.Envelope, key string) (string, bool) {
	if v, ok := env.FindMetaItem(key); ok {
		return v.String(), true
	}
	return "", false
}
