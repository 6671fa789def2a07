package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status     int
	StatusText string
	Detail     string // backend message, or "HTTP <status>: <statusText>"
	Code       string // structured error code when the backend sends one
	Method     string
	Endpoint   string
}

func (e *APIError) Error() string {
	return e.Detail
}

// StatusCode returns the HTTP status of err when it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if asAPIError(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message returns the text to show a user for err: the backend's detail when
// err carries an *APIError, else err's own message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if asAPIError(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

// IsCSRFRejection reports whether err is the backend refusing a request
// because of its CSRF token: a 403 whose detail mentions "CSRF" or whose
// structured code does.
func IsCSRFRejection(err error) bool {
	var apiErr *APIError
	if !asAPIError(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		return false
	}
	if strings.Contains(apiErr.Detail, "CSRF") {
		return true
	}
	return apiErr.Code != "" && strings.Contains(strings.ToUpper(apiErr.Code), "CSRF")
}

// errorBody covers the error shapes the backend produces: FastAPI style
// {"detail": "..."} or {"detail": [{"msg": ...}]} or {"detail": {"message", "code"}},
// and {"error": "...", "error_description": "..."} / {"message": "...", "code": "..."}.
type errorBody struct {
	Detail           json.RawMessage `json:"detail"`
	Message          string          `json:"message"`
	Code             string          `json:"code"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

type validationItem struct {
	Msg string `json:"msg"`
	Loc []any  `json:"loc"`
}

func asAPIError(err error, target **APIError) bool {
	return err != nil && errors.As(err, target)
}

func readAPIError(resp *http.Response, method, endpoint string) *APIError {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	apiErr := &APIError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Method:     method,
		Endpoint:   endpoint,
	}
	detail, code := parseErrorBody(data)
	apiErr.Code = code
	if detail == "" {
		detail = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, apiErr.StatusText)
	}
	apiErr.Detail = detail
	return apiErr
}

func parseErrorBody(data []byte) (detail, code string) {
	var body errorBody
	if len(data) == 0 || json.Unmarshal(data, &body) != nil {
		return "", ""
	}

	code = body.Code
	if len(body.Detail) > 0 {
		var s string
		var obj struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
			Code    string `json:"code"`
		}
		var items []validationItem
		switch {
		case json.Unmarshal(body.Detail, &s) == nil:
			detail = s
		case json.Unmarshal(body.Detail, &obj) == nil:
			detail = firstNonEmpty(obj.Message, obj.Detail)
			code = firstNonEmpty(obj.Code, code)
		case json.Unmarshal(body.Detail, &items) == nil:
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			detail = strings.Join(msgs, "; ")
		}
	}
	if detail == "" {
		detail = firstNonEmpty(body.Message, body.ErrorDescription)
	}
	if code == "" && body.Error != "" {
		code = body.Error
	}
	if detail == "" && body.Error != "" {
		detail = body.Error
	}
	return detail, code
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
