package share

import (
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// NewHTTPClient returns a client tuned for long paginated API sessions. proxy may be empty.
func NewHTTPClient(proxy string, timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxConnsPerHost:       0,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   64,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 30 * time.Second,
	}

	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid proxy %q", proxy)
		}
		tr.Proxy = http.ProxyURL(u)
	}

	if timeout <= 0 {
		timeout = time.Minute
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
	}, nil
}
