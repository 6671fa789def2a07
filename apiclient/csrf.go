package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	csrfFetchKey = "csrf"
	// csrfFetchTimeout bounds a shared fetch once it no longer follows the caller's context.
	csrfFetchTimeout = 10 * time.Second
)

type csrfTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// CSRFToken resolves the token a mutating request should carry, in order:
// tab cache, backend cookie, issuing endpoint. Hits are cached. Returns "" when
// none of them yields a token.
func (c *Client) CSRFToken(ctx context.Context) string {
	return c.resolveCSRFToken(ctx)
}

func (c *Client) resolveCSRFToken(ctx context.Context) string {
	if tok, ok := c.csrf.CSRFToken(); ok {
		return tok
	}
	if tok, ok := c.Cookie(c.csrfCookieName); ok {
		c.csrf.SetCSRFToken(tok)
		return tok
	}
	return c.fetchCSRFToken(ctx)
}

// refreshCSRFToken drops the cached token and asks the issuing endpoint for a new one.
func (c *Client) refreshCSRFToken(ctx context.Context) string {
	c.csrf.ClearCSRFToken()
	c.fetchGroup.Forget(csrfFetchKey)
	return c.fetchCSRFToken(ctx)
}

// fetchCSRFToken makes one bearer-authenticated GET to the issuing endpoint.
// Concurrent callers share a single request, so the request is detached from
// the cancellation of whichever caller happened to start it.
func (c *Client) fetchCSRFToken(ctx context.Context) string {
	v, _, _ := c.fetchGroup.Do(csrfFetchKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), csrfFetchTimeout)
		defer cancel()
		tok, ok := c.requestCSRFToken(fctx)
		if ok && tok == "" {
			// the response may only have set the cookie
			tok, _ = c.Cookie(c.csrfCookieName)
		}
		if tok != "" {
			c.csrf.SetCSRFToken(tok)
		}
		return tok, nil
	})
	tok, _ := v.(string)
	return tok
}

// requestCSRFToken reports the token from the response body and whether the
// endpoint answered with a 2xx at all.
func (c *Client) requestCSRFToken(ctx context.Context) (string, bool) {
	resp, err := c.send(ctx, http.MethodGet, c.csrfTokenEndpoint, RequestOptions{}, nil, "")
	if err != nil {
		c.metrics.CSRFFetch("error")
		c.logger.Debug().Err(err).Msg("CSRF token fetch failed")
		return "", false
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.metrics.CSRFFetch("error")
		c.logger.Debug().Int("status", resp.StatusCode).Msg("CSRF token endpoint refused")
		return "", false
	}

	var body csrfTokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&body); err != nil || body.CSRFToken == "" {
		c.metrics.CSRFFetch("empty")
		return "", true
	}
	c.metrics.CSRFFetch("ok")
	return body.CSRFToken, true
}
