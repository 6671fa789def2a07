package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// RequestOptions mirrors the parts of a fetch() init the console uses.
type RequestOptions struct {
	Method  string      // defaults to GET
	Body    any         // JSON-encoded; []byte and json.RawMessage are sent as is
	Headers http.Header // applied after the defaults, so they can override Content-Type
	Query   url.Values
}

func (o RequestOptions) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(o.Method)
}

// encodeBody serialises the body once so a retry can resend identical bytes.
func (o RequestOptions) encodeBody() ([]byte, error) {
	switch b := o.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(b)
	}
}

// Object is the generic JSON object, what an empty or non-JSON body decodes to.
type Object = map[string]any

// Request performs the call and decodes the response into a fresh T.
func Request[T any](ctx context.Context, d Doer, endpoint string, opts RequestOptions) (T, error) {
	var out T
	err := d.Do(ctx, endpoint, opts, &out)
	return out, err
}

func Get[T any](ctx context.Context, d Doer, endpoint string, query url.Values) (T, error) {
	return Request[T](ctx, d, endpoint, RequestOptions{Method: http.MethodGet, Query: query})
}

func Post[T any](ctx context.Context, d Doer, endpoint string, body any) (T, error) {
	return Request[T](ctx, d, endpoint, RequestOptions{Method: http.MethodPost, Body: body})
}

func Put[T any](ctx context.Context, d Doer, endpoint string, body any) (T, error) {
	return Request[T](ctx, d, endpoint, RequestOptions{Method: http.MethodPut, Body: body})
}

func Patch[T any](ctx context.Context, d Doer, endpoint string, body any) (T, error) {
	return Request[T](ctx, d, endpoint, RequestOptions{Method: http.MethodPatch, Body: body})
}

func Delete[T any](ctx context.Context, d Doer, endpoint string) (T, error) {
	return Request[T](ctx, d, endpoint, RequestOptions{Method: http.MethodDelete})
}
