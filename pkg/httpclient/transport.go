package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
)

// buildHTTPClient constructs a transport from TransportConfig, mirroring
// the teacher's internal/attacker.Engine.Attack transport setup: h2c when
// requested, otherwise a standard http.Transport with ALPN-negotiated
// HTTP/2 configured on top when ForceHTTP2 is set.
func buildHTTPClient(tc TransportConfig, timeout time.Duration) (*http.Client, error) {
	var roundTripper http.RoundTripper

	if tc.H2C {
		roundTripper = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext(ctx, network, addr)
			},
		}
	} else {
		maxIdle := tc.MaxIdleConnsPerHost
		if maxIdle <= 0 {
			maxIdle = 10
		}

		transport := &http.Transport{
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: !tc.Verify},
			MaxIdleConns:        maxIdle,
			MaxIdleConnsPerHost: maxIdle,
			MaxConnsPerHost:     maxIdle,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   !tc.KeepAlive,
			ForceAttemptHTTP2:   tc.ForceHTTP2,
			DialContext:         (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		}

		if tc.Proxy != "" {
			proxyURL, err := url.Parse(tc.Proxy)
			if err != nil {
				return nil, err
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}

		if tc.ForceHTTP2 {
			_ = http2.ConfigureTransport(transport) // falls back to HTTP/1.1 on error
		}

		roundTripper = transport
	}

	client := &http.Client{Transport: roundTripper}
	if timeout > 0 {
		client.Timeout = timeout
	} else {
		client.Timeout = 30 * time.Second
	}
	return client, nil
}
