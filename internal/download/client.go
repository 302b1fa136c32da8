package download

import (
	"net/http"
	"net/url"
	"time"
)

// HTTP client constants
const (
	DefaultClientTimeout = 10 * time.Minute
	DefaultKeepAlive     = 60 * time.Second
)

// newHTTPClient builds the transfer client. proxyURL may be empty; an
// unparsable proxy is ignored rather than failing construction, matching the
// settings store's tolerance for bad optional values.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{
		IdleConnTimeout:     DefaultKeepAlive,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
	}
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	return &http.Client{
		Timeout:   DefaultClientTimeout,
		Transport: transport,
	}
}
