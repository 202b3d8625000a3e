package api

// Request and response payloads for the signer API.

// SpecPayload is the wire form of a signing specification.
type SpecPayload struct {
	Curve           string `json:"curve"`
	HashFunction    string `json:"hashFunction"`
	SignatureFormat string `json:"signatureFormat"`
	CoinType        string `json:"coinType"`
}

// ConnectPayload selects a backend kind.
type ConnectPayload struct {
	Backend string `json:"backend"`
}

// PublicKeyPayload requests a public key for a spec.
type PublicKeyPayload struct {
	Spec SpecPayload `json:"spec"`
}

// SignPayload requests a signature over a hex-encoded payload.
type SignPayload struct {
	Spec    SpecPayload `json:"spec"`
	Payload string      `json:"payload"`
}

// BackendsResponse lists the backends whose configuration is present.
type BackendsResponse struct {
	Backends []string `json:"backends"`
}

// StatusResponse reports the connected backend, if any.
type StatusResponse struct {
	Connected bool   `json:"connected"`
	Backend   string `json:"backend,omitempty"`
}

// ConnectResponse acknowledges a connect call.
type ConnectResponse struct {
	Backend string `json:"backend"`
}

// PublicKeyResponse carries the hex-encoded public key.
type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// SignResponse carries the signature serialized per the requested format.
type SignResponse struct {
	Signature string `json:"signature"`
}
