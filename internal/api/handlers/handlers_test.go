package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
	"github.com/AdamikHQ/go-signer-gateway/internal/api/handlers"
	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

// stubSigner returns canned values and records the last payload it signed.
type stubSigner struct {
	publicKey []byte
	signature signer.RawSignature
	err       error

	lastPayload []byte
}

func (s *stubSigner) PublicKey(ctx context.Context, spec signer.SigningSpec) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.publicKey, nil
}

func (s *stubSigner) Sign(ctx context.Context, payload []byte, spec signer.SigningSpec) (signer.RawSignature, error) {
	s.lastPayload = payload
	if s.err != nil {
		return signer.RawSignature{}, s.err
	}
	return s.signature, nil
}

func newTestServer(t *testing.T, stub *stubSigner) *api.Server {
	t.Helper()

	cfg := config.Server{
		Echo:  config.EchoServer{ListenAddress: ":0"},
		Local: config.LocalSigner{Mnemonic: "abandon abandon about"},
	}
	factories := map[signer.Kind]signer.Factory{
		signer.KindLocal: func(ctx context.Context) (signer.Signer, error) {
			return stub, nil
		},
		signer.KindTurnkey: func(ctx context.Context) (signer.Signer, error) {
			return stub, nil
		},
	}

	s := api.NewServer(cfg, factories)
	handlers.AttachAllRoutes(s)
	return s
}

func request(s *api.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func connectLocal(t *testing.T, s *api.Server) {
	t.Helper()
	rec := request(s, http.MethodPost, "/api/v1/signer/connect", `{"backend":"local"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGetBackendsListsConfiguredOnly(t *testing.T) {
	s := newTestServer(t, &stubSigner{})

	rec := request(s, http.MethodGet, "/api/v1/signer/backends", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.BackendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"local"}, resp.Backends)
}

func TestStatusReflectsSession(t *testing.T) {
	s := newTestServer(t, &stubSigner{})

	rec := request(s, http.MethodGet, "/api/v1/signer/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Connected)
	assert.Empty(t, resp.Backend)

	connectLocal(t, s)

	rec = request(s, http.MethodGet, "/api/v1/signer/status", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Connected)
	assert.Equal(t, "local", resp.Backend)
}

func TestConnectRejectsUnknownBackend(t *testing.T) {
	s := newTestServer(t, &stubSigner{})

	rec := request(s, http.MethodPost, "/api/v1/signer/connect", `{"backend":"vault"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectIsIdempotentAndConflictsAcrossKinds(t *testing.T) {
	s := newTestServer(t, &stubSigner{})

	connectLocal(t, s)
	connectLocal(t, s)

	rec := request(s, http.MethodPost, "/api/v1/signer/connect", `{"backend":"turnkey"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "local")

	// The original session survives the rejected connect.
	rec = request(s, http.MethodGet, "/api/v1/signer/status", "")
	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "local", resp.Backend)
}

func TestPublicKeyRequiresConnection(t *testing.T) {
	s := newTestServer(t, &stubSigner{})

	rec := request(s, http.MethodPost, "/api/v1/signer/public-key",
		`{"spec":{"curve":"secp256k1","coinType":"60"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublicKeyReturnsHex(t *testing.T) {
	s := newTestServer(t, &stubSigner{publicKey: []byte{0x02, 0xaa, 0xbb}})
	connectLocal(t, s)

	rec := request(s, http.MethodPost, "/api/v1/signer/public-key",
		`{"spec":{"curve":"secp256k1","coinType":"60"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.PublicKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "02aabb", resp.PublicKey)
}

func TestSignSerializesPerFormat(t *testing.T) {
	stub := &stubSigner{signature: signer.RawSignature{R: "11aa", S: "22bb", V: "1b"}}
	s := newTestServer(t, stub)
	connectLocal(t, s)

	rec := request(s, http.MethodPost, "/api/v1/signer/sign",
		`{"payload":"0xdeadbeef","spec":{"curve":"secp256k1","hashFunction":"keccak256","signatureFormat":"rsv","coinType":"60"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.SignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "11aa22bb1b", resp.Signature)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, stub.lastPayload)
}

func TestSignRejectsBadPayloads(t *testing.T) {
	s := newTestServer(t, &stubSigner{})
	connectLocal(t, s)

	rec := request(s, http.MethodPost, "/api/v1/signer/sign",
		`{"spec":{"curve":"secp256k1","signatureFormat":"rs","coinType":"60"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing payload")

	rec = request(s, http.MethodPost, "/api/v1/signer/sign",
		`{"payload":"not hex","spec":{"curve":"secp256k1","signatureFormat":"rs","coinType":"60"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "non-hex payload")
}

func TestSignerErrorsMapToStatuses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "unsupported curve is a caller error",
			err:      signer.NewUnsupportedCurveError("local", signer.Curve("bls12-381")),
			expected: http.StatusBadRequest,
		},
		{
			name:     "remote signing failure is a gateway error",
			err:      signer.NewRemoteSigningError("turnkey", "policy denied"),
			expected: http.StatusBadGateway,
		},
		{
			name:     "mpc keygen failure is a gateway error",
			err:      signer.NewMpcKeygenError("sodot", "keygen ceremony failed", nil),
			expected: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubSigner{err: tt.err})
			connectLocal(t, s)

			rec := request(s, http.MethodPost, "/api/v1/signer/sign",
				`{"payload":"0x01","spec":{"curve":"secp256k1","signatureFormat":"rs","coinType":"60"}}`)
			assert.Equal(t, tt.expected, rec.Code, rec.Body.String())
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &stubSigner{})

	rec := request(s, http.MethodGet, "/-/healthy", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
