package exchange

import (
	"crypto/tls"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
)

// NewRESTClient builds a resty client configured per Config: TLS
// verification toggle, optional HTTP CONNECT proxy, and the venue's
// default 5s timeout (spec.md §4.C's order-placement timeout). Venue
// packages call this once per adapter instance and pass full URLs
// (their own REST base plus the path) on each request.
func NewRESTClient(cfg Config) *resty.Client {
	c := resty.New().
		SetTimeout(cfg.RESTTimeout).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: !cfg.VerifySSL})

	if cfg.UseProxy {
		transport := &http.Transport{
			Proxy: http.ProxyURL(&url.URL{Scheme: "http", Host: proxyHostPort(cfg)}),
		}
		c.SetTransport(transport)
	}
	return c
}
