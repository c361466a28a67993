package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// DecodeResponse decodes a JSON response into target and closes the body.
// Non-2xx responses become an *errors.APIError. A nil target or an empty
// body skips decoding.
func DecodeResponse(resp *http.Response, service string, target any) error {
	defer func() { _ = resp.Body.Close() }()

	endpoint := ""
	if resp.Request != nil && resp.Request.URL != nil {
		endpoint = resp.Request.URL.Path
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > constants.MaxErrorBodyBytes {
			msg = msg[:constants.MaxErrorBodyBytes]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &errors.APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    msg,
		}
	}

	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

// StatusCode extracts the HTTP status from an *errors.APIError, or 0.
func StatusCode(err error) int {
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
