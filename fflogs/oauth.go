package fflogs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// authorizer signs API requests, either with a fixed bearer token or with a
// client-credentials token fetched and refreshed on demand.
type authorizer struct {
	http *http.Client

	tokenURL     string
	clientID     string
	clientSecret string

	static string

	headerLock    sync.Mutex
	headerValue   string
	headerExpires time.Time
}

func (a *authorizer) Reset() {
	a.headerLock.Lock()
	a.headerValue = ""
	a.headerLock.Unlock()
}

func (a *authorizer) header(ctx context.Context) (string, error) {
	if a.static != "" {
		return "Bearer " + a.static, nil
	}

	a.headerLock.Lock()
	defer a.headerLock.Unlock()

	now := time.Now()
	if a.headerValue != "" && now.Before(a.headerExpires) {
		return a.headerValue, nil
	}

	form := url.Values{
		"grant_type":    []string{"client_credentials"},
		"client_id":     []string{a.clientID},
		"client_secret": []string{a.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header = http.Header{
		"Content-Type": []string{"application/x-www-form-urlencoded"},
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer resp.Body.Close()

	var token struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		AccessToken      string `json:"access_token"`
		ExpiresIn        int64  `json:"expires_in"`
	}
	err = jsoniter.NewDecoder(resp.Body).Decode(&token)
	if err != nil && err != io.EOF {
		return "", errors.WithStack(err)
	}
	if token.Error != "" {
		return "", errors.Errorf("oauth: %s %s", token.Error, token.ErrorDescription)
	}
	if resp.StatusCode != http.StatusOK || token.AccessToken == "" {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: a.tokenURL}
	}

	a.headerValue = fmt.Sprintf("Bearer %s", token.AccessToken)
	// refresh a little early so a token never expires mid-request
	a.headerExpires = now.Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)

	return a.headerValue, nil
}

func (a *authorizer) NewRequest(ctx context.Context, method string, urlStr string, body io.Reader) (*http.Request, error) {
	authorization, err := a.header(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header = http.Header{
		"Authorization": []string{authorization},
		"Content-Type":  []string{"application/json; encoding=utf-8"},
	}

	return req, nil
}
