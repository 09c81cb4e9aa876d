package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/releasetools/fixvet/pkg/errors"
)

// DecodeResponse decodes a JSON response into the target structure.
// Non-2xx responses surface as TrackerError carrying the body.
func DecodeResponse(resp *http.Response, target any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		endpoint := ""
		if resp.Request != nil && resp.Request.URL != nil {
			endpoint = resp.Request.URL.Path
		}
		return errors.NewTrackerError(endpoint, resp.StatusCode, string(body))
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}
