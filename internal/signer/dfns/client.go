// Package dfns implements the Dfns-style custodial backend: wallets live in
// a remote key-custody service and signatures are produced by hash/message
// signature requests against a wallet.
package dfns

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

// client is a thin JSON-over-HTTPS client authenticated with a bearer token
// and an application id header.
type client struct {
	baseURL    string
	appID      string
	authToken  string
	httpClient *http.Client
}

func newClient(cfg config.DfnsSigner) *client {
	return &client{
		baseURL:    cfg.BaseURL,
		appID:      cfg.AppID,
		authToken:  cfg.AuthToken,
		httpClient: http.DefaultClient,
	}
}

// do sends a request and decodes the JSON response into out. Transport and
// non-2xx failures surface as RemoteServiceError; no retries.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return signer.NewRemoteServiceError(BackendName, errors.Wrap(err, "failed to encode request"))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return signer.NewRemoteServiceError(BackendName, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("X-DFNS-APPID", c.appID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return signer.NewRemoteServiceError(BackendName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return signer.NewRemoteServiceError(BackendName, errors.Wrap(err, "failed to read response"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return signer.NewRemoteServiceError(BackendName,
			errors.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return signer.NewRemoteServiceError(BackendName, errors.Wrap(err, "failed to decode response"))
		}
	}
	return nil
}
