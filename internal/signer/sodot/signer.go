package sodot

import (
	"context"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

// BackendName is the backend-kind selector for this signer.
const BackendName = "sodot"

// The vertex set and threshold are policy choices, not discovered at runtime.
const (
	numParties = config.SodotVertexCount
	threshold  = 2
)

const (
	familyECDSA   = "ecdsa"
	familyEd25519 = "ed25519"
)

// Signer coordinates keygen and signing ceremonies across the vertex set.
// Key-share identifiers (one per party) are produced by a single keygen
// ceremony per curve family and cached for the process lifetime, or supplied
// pre-provisioned via configuration, which skips keygen entirely.
type Signer struct {
	vertices []*vertexClient

	mu     sync.Mutex
	keyIDs map[string][]string
}

// New constructs the Sodot backend or fails with a configuration error.
func New(cfg config.SodotSigner) (*Signer, error) {
	if !cfg.Configured() {
		return nil, signer.NewConfigurationError(BackendName,
			"each of the 3 vertices needs a SODOT_VERTEX_URL_n and SODOT_VERTEX_API_KEY_n")
	}

	s := &Signer{keyIDs: make(map[string][]string)}
	for i := 0; i < numParties; i++ {
		s.vertices = append(s.vertices, &vertexClient{
			index:      i,
			baseURL:    cfg.VertexURLs[i],
			apiKey:     cfg.VertexAPIKeys[i],
			httpClient: http.DefaultClient,
		})
	}

	if len(cfg.ExistingECDSAKeyIDs) == numParties {
		s.keyIDs[familyECDSA] = cfg.ExistingECDSAKeyIDs
		log.Info().Msg("Using pre-provisioned ecdsa key identifiers, keygen skipped")
	}
	if len(cfg.ExistingEd25519KeyIDs) == numParties {
		s.keyIDs[familyEd25519] = cfg.ExistingEd25519KeyIDs
		log.Info().Msg("Using pre-provisioned ed25519 key identifiers, keygen skipped")
	}
	return s, nil
}

// family maps the requested curve to the vertex protocol family.
func family(curve signer.Curve) (string, error) {
	switch curve {
	case signer.CurveSecp256k1:
		return familyECDSA, nil
	case signer.CurveEd25519:
		return familyEd25519, nil
	default:
		return "", signer.NewUnsupportedCurveError(BackendName, curve)
	}
}

// hashHint maps the requested hash function to the vertex hash-algorithm hint for
// ecdsa-class signing. The hint is unused for eddsa-class curves.
func hashHint(hash signer.HashFunction, curve signer.Curve) (string, error) {
	if curve == signer.CurveEd25519 {
		return "", nil
	}
	switch hash {
	case signer.HashSHA256:
		return "sha256", nil
	case signer.HashKeccak256:
		return "keccak256", nil
	case signer.HashNone:
		// Payload arrives pre-hashed; no hint attached.
		return "", nil
	default:
		return "", signer.NewUnsupportedHashError(BackendName, hash, curve)
	}
}

// PublicKey returns the public key for the spec, derived by vertex 0 from the
// cached key identifier and the shared derivation path. Quorum is not needed
// for derivation.
func (s *Signer) PublicKey(ctx context.Context, spec signer.SigningSpec) ([]byte, error) {
	fam, err := family(spec.Curve)
	if err != nil {
		return nil, err
	}
	coinType, err := spec.CoinTypeUint32()
	if err != nil {
		return nil, err
	}

	keyIDs, err := s.keyIDsFor(ctx, fam)
	if err != nil {
		return nil, err
	}

	pubkey, err := s.vertices[0].derivePubkey(ctx, fam, derivePubkeyRequest{
		KeyID:          keyIDs[0],
		DerivationPath: signer.DefaultAccountIndices(coinType),
	})
	if err != nil {
		return nil, signer.NewMpcTransportError(BackendName, err)
	}
	return util.DecodeHex(pubkey)
}

// Sign runs one signing ceremony: a fresh room, then a parallel sign fan-out
// across all vertices. Individual vertex failures are logged and tolerated;
// the ceremony fails only when the designated first vertex's result is
// missing. Unsupported hash combinations fail fast before any network call.
func (s *Signer) Sign(ctx context.Context, payload []byte, spec signer.SigningSpec) (signer.RawSignature, error) {
	fam, err := family(spec.Curve)
	if err != nil {
		return signer.RawSignature{}, err
	}
	hint, err := hashHint(spec.HashFunction, spec.Curve)
	if err != nil {
		return signer.RawSignature{}, err
	}
	coinType, err := spec.CoinTypeUint32()
	if err != nil {
		return signer.RawSignature{}, err
	}

	keyIDs, err := s.keyIDsFor(ctx, fam)
	if err != nil {
		return signer.RawSignature{}, err
	}

	// Rooms are never reused across signing operations.
	roomID, err := s.vertices[0].createRoom(ctx, numParties)
	if err != nil {
		return signer.RawSignature{}, signer.NewMpcTransportError(BackendName, err)
	}

	ceremonyID := uuid.New().String()
	log.Debug().
		Str("ceremony_id", ceremonyID).
		Str("room_id", roomID).
		Str("family", fam).
		Msg("Starting signing ceremony")

	results := make([]*signResponse, numParties)
	var wg sync.WaitGroup
	for i, vertex := range s.vertices {
		wg.Add(1)
		go func(i int, vertex *vertexClient) {
			defer wg.Done()
			resp, err := vertex.sign(ctx, fam, signRequest{
				RoomUUID:       roomID,
				KeyID:          keyIDs[i],
				Msg:            hex.EncodeToString(payload),
				DerivationPath: signer.DefaultAccountIndices(coinType),
				HashAlgo:       hint,
			})
			if err != nil {
				// Non-fatal at the per-vertex level: the threshold scheme
				// finalizes once enough shares were exchanged.
				log.Warn().
					Err(err).
					Str("ceremony_id", ceremonyID).
					Int("vertex", i).
					Msg("Vertex failed during signing")
				return
			}
			results[i] = &resp
		}(i, vertex)
	}
	wg.Wait()

	// Every successful vertex holds the identical aggregate, so the first
	// vertex's response is authoritative.
	if results[0] == nil {
		return signer.RawSignature{}, signer.NewMpcSigningError(BackendName,
			"designated vertex returned no signature")
	}
	return parseSignature(*results[0])
}

// parseSignature normalizes a vertex signing response into the raw (r, s, v?)
// triple. ecdsa-class vertices answer with split fields, eddsa-class ones
// with one concatenated 64-byte signature.
func parseSignature(resp signResponse) (signer.RawSignature, error) {
	if resp.R != "" && resp.S != "" {
		return signer.RawSignature{
			R: util.StripHexPrefix(resp.R),
			S: util.StripHexPrefix(resp.S),
			V: util.StripHexPrefix(resp.V),
		}, nil
	}

	sig := util.StripHexPrefix(resp.Signature)
	if len(sig) != 128 {
		return signer.RawSignature{}, signer.NewMpcSigningError(BackendName,
			"vertex returned a malformed signature")
	}
	return signer.RawSignature{R: sig[:64], S: sig[64:]}, nil
}

// keyIDsFor returns the per-party key identifiers for the curve family,
// running the keygen ceremony on first use. Identifiers are cached only
// after the ceremony fully completes across all vertices.
func (s *Signer) keyIDsFor(ctx context.Context, fam string) ([]string, error) {
	s.mu.Lock()
	keyIDs, ok := s.keyIDs[fam]
	s.mu.Unlock()
	if ok {
		return keyIDs, nil
	}

	keyIDs, err := s.keygenCeremony(ctx, fam)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.keyIDs[fam]; ok {
		keyIDs = existing
	} else {
		s.keyIDs[fam] = keyIDs
	}
	s.mu.Unlock()
	return keyIDs, nil
}

// keygenCeremony runs the three-phase distributed keygen: room creation on
// the designated vertex, parallel initialization, then parallel keygen where
// each vertex receives every handle but its own. Keygen either completes
// across all vertices or fails as a whole, even though signing later needs
// only the threshold.
func (s *Signer) keygenCeremony(ctx context.Context, fam string) ([]string, error) {
	ceremonyID := uuid.New().String()

	// Phase 1: room.
	roomID, err := s.vertices[0].createRoom(ctx, numParties)
	if err != nil {
		return nil, signer.NewMpcTransportError(BackendName, err)
	}

	// Phase 2: parallel initialization.
	inits := make([]keygenInitResponse, numParties)
	g, gctx := errgroup.WithContext(ctx)
	for i, vertex := range s.vertices {
		i, vertex := i, vertex
		g.Go(func() error {
			resp, err := vertex.keygenInit(gctx, fam)
			if err != nil {
				return err
			}
			inits[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, signer.NewMpcTransportError(BackendName, err)
	}

	// Phase 3: parallel keygen with per-vertex self-exclusion.
	g, gctx = errgroup.WithContext(ctx)
	for i, vertex := range s.vertices {
		i, vertex := i, vertex
		g.Go(func() error {
			return vertex.keygen(gctx, fam, keygenRequest{
				RoomUUID:        roomID,
				KeyID:           inits[i].KeyID,
				NumParties:      numParties,
				Threshold:       threshold,
				OthersKeygenIDs: othersKeygenIDs(inits, i),
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, signer.NewMpcKeygenError(BackendName, "keygen ceremony failed", err)
	}

	keyIDs := make([]string, numParties)
	for i, init := range inits {
		keyIDs[i] = init.KeyID
	}

	log.Info().
		Str("ceremony_id", ceremonyID).
		Str("room_id", roomID).
		Str("family", fam).
		Msg("Keygen ceremony completed on all vertices")
	return keyIDs, nil
}

// othersKeygenIDs collects every vertex's keygen handle except self's. The
// threshold protocol requires this mutual-reference pattern exactly.
func othersKeygenIDs(inits []keygenInitResponse, self int) []string {
	others := make([]string, 0, len(inits)-1)
	for i, init := range inits {
		if i == self {
			continue
		}
		others = append(others, init.KeygenID)
	}
	return others
}
