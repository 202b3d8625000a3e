// Package turnkey implements the Turnkey-style custodial backend: accounts
// live in a remote key-custody service and every signature is produced by a
// remote raw-payload signing activity.
package turnkey

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/pkg/errors"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

// client is a thin JSON-over-HTTPS client. Every request is authenticated
// with an API-key stamp: a P-256 signature over the exact request body,
// carried base64url-encoded in the X-Stamp header.
type client struct {
	baseURL    string
	apiPublic  string
	signingKey *ecdsa.PrivateKey
	httpClient *http.Client
}

type stamp struct {
	PublicKey string `json:"publicKey"`
	Scheme    string `json:"scheme"`
	Signature string `json:"signature"`
}

func newClient(cfg config.TurnkeySigner) (*client, error) {
	scalar, err := hex.DecodeString(cfg.APIPrivateKey)
	if err != nil {
		return nil, signer.NewConfigurationError(BackendName, "API private key is not valid hex")
	}

	priv := new(ecdsa.PrivateKey)
	priv.Curve = elliptic.P256()
	priv.D = new(big.Int).SetBytes(scalar)
	priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(scalar)
	if priv.PublicKey.X == nil {
		return nil, signer.NewConfigurationError(BackendName, "API private key is not a valid P-256 scalar")
	}

	return &client{
		baseURL:    cfg.BaseURL,
		apiPublic:  cfg.APIPublicKey,
		signingKey: priv,
		httpClient: http.DefaultClient,
	}, nil
}

// post sends body to path and decodes the JSON response into out. Transport
// and non-2xx failures surface as RemoteServiceError; no retries.
func (c *client) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return signer.NewRemoteServiceError(BackendName, errors.Wrap(err, "failed to encode request"))
	}

	header, err := c.stampFor(raw)
	if err != nil {
		return signer.NewRemoteServiceError(BackendName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return signer.NewRemoteServiceError(BackendName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Stamp", header)

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
			errors.Errorf("POST %s returned %d: %s", path, resp.StatusCode, string(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return signer.NewRemoteServiceError(BackendName, errors.Wrap(err, "failed to decode response"))
		}
	}
	return nil
}

// stampFor signs the request body and encodes the API-key stamp header.
func (c *client) stampFor(body []byte) (string, error) {
	digest := sha256.Sum256(body)
	sig, err := ecdsa.SignASN1(rand.Reader, c.signingKey, digest[:])
	if err != nil {
		return "", errors.Wrap(err, "failed to sign request stamp")
	}

	st := stamp{
		PublicKey: c.apiPublic,
		Scheme:    "SIGNATURE_SCHEME_TK_API_P256",
		Signature: hex.EncodeToString(sig),
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode request stamp")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
