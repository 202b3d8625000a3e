// Package sodot implements the threshold-MPC backend: an adapter in front of
// a fixed set of cosigning vertices that jointly hold key shares and produce
// signatures without ever reconstructing the private key.
package sodot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// vertexClient talks JSON-over-HTTPS to one cosigning vertex.
type vertexClient struct {
	index      int
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type createRoomRequest struct {
	RoomSize int `json:"room_size"`
}

type createRoomResponse struct {
	RoomUUID string `json:"room_uuid"`
}

type keygenInitResponse struct {
	KeyID    string `json:"key_id"`
	KeygenID string `json:"keygen_id"`
}

type keygenRequest struct {
	RoomUUID        string   `json:"room_uuid"`
	KeyID           string   `json:"key_id"`
	NumParties      int      `json:"num_parties"`
	Threshold       int      `json:"threshold"`
	OthersKeygenIDs []string `json:"others_keygen_ids"`
}

type signRequest struct {
	RoomUUID       string   `json:"room_uuid"`
	KeyID          string   `json:"key_id"`
	Msg            string   `json:"msg"`
	DerivationPath []uint32 `json:"derivation_path"`
	HashAlgo       string   `json:"hash_algo,omitempty"`
}

type signResponse struct {
	R         string `json:"r"`
	S         string `json:"s"`
	V         string `json:"v"`
	Signature string `json:"signature"`
}

type derivePubkeyRequest struct {
	KeyID          string   `json:"key_id"`
	DerivationPath []uint32 `json:"derivation_path"`
}

type derivePubkeyResponse struct {
	Pubkey string `json:"pubkey"`
}

// createRoom asks the vertex to allocate a shared session identifier binding
// roomSize participants for one ceremony.
func (v *vertexClient) createRoom(ctx context.Context, roomSize int) (string, error) {
	var resp createRoomResponse
	if err := v.post(ctx, "/create-room", createRoomRequest{RoomSize: roomSize}, &resp); err != nil {
		return "", err
	}
	if resp.RoomUUID == "" {
		return "", errors.Errorf("vertex %d returned an empty room id", v.index)
	}
	return resp.RoomUUID, nil
}

// keygenInit prepares a local key-generation handle for the curve family and
// returns the vertex's (keygenID, keyID) pair.
func (v *vertexClient) keygenInit(ctx context.Context, family string) (keygenInitResponse, error) {
	var resp keygenInitResponse
	if err := v.post(ctx, "/"+family+"/create", nil, &resp); err != nil {
		return keygenInitResponse{}, err
	}
	if resp.KeyID == "" || resp.KeygenID == "" {
		return keygenInitResponse{}, errors.Errorf("vertex %d returned an incomplete keygen-init result", v.index)
	}
	return resp, nil
}

// keygen executes the distributed keygen round on this vertex. The
// othersKeygenIDs list must exclude this vertex's own handle.
func (v *vertexClient) keygen(ctx context.Context, family string, req keygenRequest) error {
	return v.post(ctx, "/"+family+"/keygen", req, nil)
}

// sign asks this vertex for its view of the aggregated signature.
func (v *vertexClient) sign(ctx context.Context, family string, req signRequest) (signResponse, error) {
	var resp signResponse
	if err := v.post(ctx, "/"+family+"/sign", req, &resp); err != nil {
		return signResponse{}, err
	}
	return resp, nil
}

// derivePubkey queries the public key for keyID at the given path.
func (v *vertexClient) derivePubkey(ctx context.Context, family string, req derivePubkeyRequest) (string, error) {
	var resp derivePubkeyResponse
	if err := v.post(ctx, "/"+family+"/derive-pubkey", req, &resp); err != nil {
		return "", err
	}
	if resp.Pubkey == "" {
		return "", errors.Errorf("vertex %d returned an empty public key", v.index)
	}
	return resp.Pubkey, nil
}

// post sends body to the vertex and decodes the JSON response into out.
// Each call is attempted exactly once; retries are the caller's concern.
func (v *vertexClient) post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode vertex request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "vertex %d: failed to build request", v.index)
	}
	req.Header.Set("Authorization", v.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "vertex %d unreachable", v.index)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "vertex %d: failed to read response", v.index)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("vertex %d: POST %s returned %d: %s",
			v.index, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "vertex %d: failed to decode response", v.index)
		}
	}
	return nil
}

func (v *vertexClient) String() string {
	return fmt.Sprintf("vertex-%d", v.index)
}
