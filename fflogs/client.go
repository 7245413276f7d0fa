package fflogs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"text/template"
	"time"

	"ffxiv_damage/cache"
	"ffxiv_damage/share"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint   = "https://www.fflogs.com/api/v2/client"
	DefaultTokenURL   = "https://www.fflogs.com/oauth/token"
	DefaultRetryDelay = 3 * time.Second

	maxRetries = 3
)

type Options struct {
	Endpoint string
	TokenURL string

	// Token is a ready-made bearer token. When empty ClientID and ClientSecret are used.
	Token        string
	ClientID     string
	ClientSecret string

	HTTPClient *http.Client
	Cache      *cache.Storage

	// RetryDelay is the wait between attempts, DefaultRetryDelay when zero.
	RetryDelay time.Duration
}

type Client struct {
	endpoint   string
	http       *http.Client
	auth       *authorizer
	cache      *cache.Storage
	retryDelay time.Duration

	bufPool sync.Pool
}

func New(opt Options) (*Client, error) {
	if opt.Token == "" && (opt.ClientID == "" || opt.ClientSecret == "") {
		return nil, errors.New("fflogs: a token or a client id and secret are required")
	}
	if opt.Endpoint == "" {
		opt.Endpoint = DefaultEndpoint
	}
	if opt.TokenURL == "" {
		opt.TokenURL = DefaultTokenURL
	}
	if opt.HTTPClient == nil {
		opt.HTTPClient = http.DefaultClient
	}
	if opt.RetryDelay <= 0 {
		opt.RetryDelay = DefaultRetryDelay
	}

	return &Client{
		endpoint: opt.Endpoint,
		http:     opt.HTTPClient,
		auth: &authorizer{
			http:         opt.HTTPClient,
			tokenURL:     opt.TokenURL,
			clientID:     opt.ClientID,
			clientSecret: opt.ClientSecret,
			static:       opt.Token,
		},
		cache:      opt.Cache,
		retryDelay: opt.RetryDelay,
		bufPool: sync.Pool{
			New: func() interface{} {
				buf := new(bytes.Buffer)
				buf.Grow(16 * 1024)
				return buf
			},
		},
	}, nil
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: %d %s: %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

type GraphQLError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path"`
}

// GraphQLErrors is returned when the API answers with an errors array.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

func retryable(err error) bool {
	var ge GraphQLErrors
	if errors.As(err, &ge) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized:
		case se.StatusCode == http.StatusTooManyRequests:
		case se.StatusCode >= 500:
		default:
			return false
		}
	}

	return true
}

// CallGraphQL renders tmpl with tmplData, posts it and decodes the "data" member into respData.
func (c *Client) CallGraphQL(ctx context.Context, tmpl *template.Template, tmplData interface{}, respData interface{}) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = c.callGraphQLInner(ctx, tmpl, tmplData, respData)

		if err == nil {
			return nil
		}
		if share.IsContextClosedError(err) || !retryable(err) {
			return err
		}

		zap.L().Warn(
			"graphql call failed",
			zap.String("query", tmpl.Name()),
			zap.Int("try", i+1),
			zap.Error(err),
		)

		if i+1 < maxRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			}
		}
	}
	return err
}

func (c *Client) callGraphQLInner(ctx context.Context, tmpl *template.Template, tmplData interface{}, respData interface{}) error {
	var sb strings.Builder
	err := tmpl.Execute(&sb, tmplData)
	if err != nil {
		return errors.WithStack(err)
	}

	queryData := struct {
		Query string `json:"query"`
	}{
		Query: sb.String(),
	}

	buf := c.bufPool.Get().(*bytes.Buffer)
	defer c.bufPool.Put(buf)

	buf.Reset()
	err = jsoniter.NewEncoder(buf).Encode(&queryData)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := c.auth.NewRequest(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.Reset()
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        c.endpoint,
			Body:       strings.TrimSpace(share.B2s(body)),
		}
	}

	var envelope struct {
		Data   jsoniter.RawMessage `json:"data"`
		Errors GraphQLErrors       `json:"errors"`
	}
	err = jsoniter.NewDecoder(resp.Body).Decode(&envelope)
	if err != nil {
		return errors.Wrap(err, "failed to decode graphql response")
	}
	if len(envelope.Errors) > 0 {
		return envelope.Errors
	}
	if len(envelope.Data) == 0 || share.B2s(envelope.Data) == "null" {
		return errors.New("graphql: empty response")
	}

	return errors.WithStack(jsoniter.Unmarshal(envelope.Data, respData))
}

func (c *Client) cachedCall(ctx context.Context, key uint64, tmpl *template.Template, tmplData interface{}, respData interface{}) error {
	if c.cache != nil && c.cache.Load(key, respData) {
		return nil
	}

	err := c.CallGraphQL(ctx, tmpl, tmplData, respData)
	if err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Save(key, respData)
	}
	return nil
}
