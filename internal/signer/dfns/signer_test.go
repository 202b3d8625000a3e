package dfns

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

// fakeCustody simulates the remote wallet API, one page per element of pages.
type fakeCustody struct {
	pages []listWalletsResponse

	listCalls   atomic.Int32
	createCalls atomic.Int32

	created walletItem

	signStatus string
	signReason string
	signature  signatureBody

	lastSignBody map[string]any
	lastAuth     string
	lastAppID    string

	server *httptest.Server
}

func newFakeCustody(t *testing.T) *fakeCustody {
	t.Helper()
	f := &fakeCustody{signStatus: statusSigned}

	mux := http.NewServeMux()
	mux.HandleFunc("/wallets", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		f.lastAppID = r.Header.Get("X-DFNS-APPID")

		if r.Method == http.MethodPost {
			f.createCalls.Add(1)
			writeJSON(w, f.created)
			return
		}

		f.listCalls.Add(1)
		if len(f.pages) == 0 {
			writeJSON(w, listWalletsResponse{})
			return
		}
		idx := 0
		if token := r.URL.Query().Get("paginationToken"); token != "" {
			for i, page := range f.pages {
				if page.NextPageToken == token {
					idx = i + 1
					break
				}
			}
		}
		writeJSON(w, f.pages[idx])
	})
	mux.HandleFunc("/wallets/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/signatures") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.lastSignBody = body

		writeJSON(w, signatureResponse{
			ID:        "sig-1",
			Status:    f.signStatus,
			Reason:    f.signReason,
			Signature: f.signature,
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestSigner(t *testing.T, f *fakeCustody) *Signer {
	t.Helper()
	s, err := New(config.DfnsSigner{
		BaseURL:      f.server.URL,
		AppID:        "app-1",
		CredentialID: "cred-1",
		AuthToken:    "token-1",
	})
	require.NoError(t, err)
	return s
}

func secpWallet(id string, coinType uint32, publicKey string) walletItem {
	return walletItem{
		ID:             id,
		DerivationPath: signer.DefaultAccountPath(coinType),
		SigningKey:     signingKey{Scheme: "ECDSA", Curve: "secp256k1", PublicKey: publicKey},
	}
}

func TestNewRejectsIncompleteConfiguration(t *testing.T) {
	_, err := New(config.DfnsSigner{BaseURL: "https://example.test"})
	require.Error(t, err)
	assert.True(t, signer.IsKind(err, signer.ErrKindConfiguration))
}

func TestPublicKeyFindsWalletAcrossPages(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{
		{
			Items:         []walletItem{secpWallet("w-0", 0, "0x02ff")},
			NextPageToken: "page-2",
		},
		{
			Items: []walletItem{secpWallet("w-60", 60, "0x02aabb")},
		},
	}
	s := newTestSigner(t, f)

	pub, err := s.PublicKey(context.Background(), signer.SigningSpec{Curve: signer.CurveSecp256k1, CoinType: "60"})
	require.NoError(t, err)
	assert.Equal(t, "02aabb", hex.EncodeToString(pub))
	assert.Equal(t, int32(2), f.listCalls.Load())
	assert.Equal(t, int32(0), f.createCalls.Load())

	assert.Equal(t, "Bearer token-1", f.lastAuth)
	assert.Equal(t, "app-1", f.lastAppID)

	// Second lookup hits the cache.
	_, err = s.PublicKey(context.Background(), signer.SigningSpec{Curve: signer.CurveSecp256k1, CoinType: "60"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.listCalls.Load())
}

func TestPublicKeyCreatesMissingWallet(t *testing.T) {
	f := newFakeCustody(t)
	f.created = secpWallet("w-new", 60, "0x02cafe")
	s := newTestSigner(t, f)

	pub, err := s.PublicKey(context.Background(), signer.SigningSpec{Curve: signer.CurveSecp256k1, CoinType: "60"})
	require.NoError(t, err)
	assert.Equal(t, "02cafe", hex.EncodeToString(pub))
	assert.Equal(t, int32(1), f.createCalls.Load())
}

func TestPublicKeyNormalizesStarkKey(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{
		Items: []walletItem{{
			ID:             "w-stark",
			DerivationPath: signer.DefaultAccountPath(9004),
			SigningKey:     signingKey{Scheme: "ECDSA", Curve: "stark", PublicKey: "0x0000ABCD"},
		}},
	}}
	s := newTestSigner(t, f)

	pub, err := s.PublicKey(context.Background(), signer.SigningSpec{Curve: signer.CurveStark, CoinType: "9004"})
	require.NoError(t, err)
	assert.Equal(t, "abcd", hex.EncodeToString(pub), "zero-padded keys must be reduced to minimal width")
}

func TestSignSecp256k1HashesLocally(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{Items: []walletItem{secpWallet("w-60", 60, "0x02aabb")}}}
	recid := byte(1)
	f.signature = signatureBody{R: "0x11aa", S: "0x22bb", Recid: &recid}
	s := newTestSigner(t, f)

	payload := []byte("transaction bytes")
	raw, err := s.Sign(context.Background(), payload, signer.SigningSpec{
		Curve:        signer.CurveSecp256k1,
		HashFunction: signer.HashSHA256,
		CoinType:     "60",
	})
	require.NoError(t, err)
	assert.Equal(t, signer.RawSignature{R: "11aa", S: "22bb", V: "1c"}, raw)

	sum := sha256.Sum256(payload)
	assert.Equal(t, "Hash", f.lastSignBody["kind"])
	assert.Equal(t, "0x"+hex.EncodeToString(sum[:]), f.lastSignBody["hash"])
}

func TestSignEd25519SendsRawMessage(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{
		Items: []walletItem{{
			ID:             "w-ed",
			DerivationPath: signer.DefaultAccountPath(501),
			SigningKey:     signingKey{Scheme: "EdDSA", Curve: "ed25519", PublicKey: "0xddee"},
		}},
	}}
	f.signature = signatureBody{R: "0xaa", S: "0xbb"}
	s := newTestSigner(t, f)

	payload := []byte{0x01, 0x02}
	raw, err := s.Sign(context.Background(), payload, signer.SigningSpec{
		Curve:        signer.CurveEd25519,
		HashFunction: signer.HashNone,
		CoinType:     "501",
	})
	require.NoError(t, err)
	assert.Equal(t, signer.RawSignature{R: "aa", S: "bb"}, raw)
	assert.Empty(t, raw.V, "no recovery byte without a recid")

	assert.Equal(t, "Message", f.lastSignBody["kind"])
	assert.Equal(t, "0x0102", f.lastSignBody["message"])
}

func TestSignStarkUsesPedersenDigest(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{
		Items: []walletItem{{
			ID:             "w-stark",
			DerivationPath: signer.DefaultAccountPath(9004),
			SigningKey:     signingKey{Scheme: "ECDSA", Curve: "stark", PublicKey: "0x0abc"},
		}},
	}}
	f.signature = signatureBody{R: "0x11", S: "0x22"}
	s := newTestSigner(t, f)

	_, err := s.Sign(context.Background(), []byte{0x01, 0x02, 0x03}, signer.SigningSpec{
		Curve:        signer.CurveStark,
		HashFunction: signer.HashPedersen,
		CoinType:     "9004",
	})
	require.NoError(t, err)

	hash, ok := f.lastSignBody["hash"].(string)
	require.True(t, ok)
	assert.Equal(t, "Hash", f.lastSignBody["kind"])
	assert.Len(t, hash, 66, "pedersen digest is fixed-width 0x-prefixed hex")
}

func TestSignNonSignedStatusFails(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{Items: []walletItem{secpWallet("w-60", 60, "0x02aabb")}}}
	f.signStatus = "Failed"
	f.signReason = "policy denied the request"
	s := newTestSigner(t, f)

	_, err := s.Sign(context.Background(), []byte{0x01}, signer.SigningSpec{
		Curve:        signer.CurveSecp256k1,
		HashFunction: signer.HashSHA256,
		CoinType:     "60",
	})
	require.Error(t, err)
	assert.True(t, signer.IsKind(err, signer.ErrKindRemoteSigning))
	assert.Contains(t, err.Error(), "policy denied the request")
}

func TestUnsupportedSpecs(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{
		Items: []walletItem{
			secpWallet("w-60", 60, "0x02aabb"),
			{
				ID:             "w-stark",
				DerivationPath: signer.DefaultAccountPath(9004),
				SigningKey:     signingKey{Scheme: "ECDSA", Curve: "stark", PublicKey: "0x0abc"},
			},
		},
	}}
	s := newTestSigner(t, f)

	_, err := s.PublicKey(context.Background(), signer.SigningSpec{Curve: signer.Curve("bls12-381"), CoinType: "60"})
	require.Error(t, err)
	assert.True(t, signer.IsKind(err, signer.ErrKindUnsupportedCurve))

	_, err = s.Sign(context.Background(), []byte{0x01}, signer.SigningSpec{
		Curve:        signer.CurveSecp256k1,
		HashFunction: signer.HashPedersen,
		CoinType:     "60",
	})
	require.Error(t, err)
	assert.True(t, signer.IsKind(err, signer.ErrKindUnsupportedHash))

	_, err = s.Sign(context.Background(), []byte{0x01}, signer.SigningSpec{
		Curve:        signer.CurveStark,
		HashFunction: signer.HashSHA512256,
		CoinType:     "9004",
	})
	require.Error(t, err)
	assert.True(t, signer.IsKind(err, signer.ErrKindUnsupportedHash))
}

func TestSignWalletIDIsPathEscaped(t *testing.T) {
	f := newFakeCustody(t)
	f.pages = []listWalletsResponse{{Items: []walletItem{secpWallet("w 60", 60, "0x02aabb")}}}
	f.signature = signatureBody{R: "0x11", S: "0x22"}
	s := newTestSigner(t, f)

	_, err := s.Sign(context.Background(), []byte{0x01}, signer.SigningSpec{
		Curve:        signer.CurveSecp256k1,
		HashFunction: signer.HashNone,
		CoinType:     "60",
	})
	require.NoError(t, err)
	require.NotNil(t, f.lastSignBody, fmt.Sprintf("signature request must reach the API for wallet %q", "w 60"))
}
