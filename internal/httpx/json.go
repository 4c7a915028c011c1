package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/matdisco/matdisco/types"
)

// Doer is the subset of http.Client the helpers need. Tests substitute a
// stub without standing up a server.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxResponseBody caps how much of an upstream response we will read.
// Patent full-text responses are large; anything past this is hostile.
const maxResponseBody = 32 << 20

// GetJSON issues a GET and decodes the JSON response into out.
func GetJSON(ctx context.Context, client Doer, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.NewError(types.ErrExternalRequest, "build request").WithCause(err)
	}
	return doJSON(client, req, headers, out)
}

// PostJSON issues a POST with a JSON body and decodes the JSON response
// into out. A nil body sends an empty POST.
func PostJSON(ctx context.Context, client Doer, url string, headers map[string]string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return types.NewError(types.ErrExternalRequest, "encode request body").WithCause(err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, rd)
	if err != nil {
		return types.NewError(types.ErrExternalRequest, "build request").WithCause(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return doJSON(client, req, headers, out)
}

func doJSON(client Doer, req *http.Request, headers map[string]string, out any) error {
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.NewError(types.ErrExternalRequest,
			fmt.Sprintf("%s %s", req.Method, req.URL.Host)).
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return types.NewError(types.ErrExternalRequest, "read response body").
			WithCause(err).WithRetryable(true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := types.NewError(types.ErrExternalRequest,
			fmt.Sprintf("%s returned HTTP %d", req.URL.Host, resp.StatusCode)).
			WithHTTPStatus(http.StatusBadGateway)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			e = e.WithRetryable(true)
		}
		return e
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return types.NewError(types.ErrResponseParse,
			fmt.Sprintf("decode response from %s", req.URL.Host)).WithCause(err)
	}
	return nil
}
