package dfns

// Wire shapes for the subset of the custody API this backend consumes.

type signingKey struct {
	Scheme    string `json:"scheme"`
	Curve     string `json:"curve"`
	PublicKey string `json:"publicKey"`
}

type walletItem struct {
	ID             string     `json:"id"`
	DerivationPath string     `json:"derivationPath"`
	SigningKey     signingKey `json:"signingKey"`
}

type listWalletsResponse struct {
	Items         []walletItem `json:"items"`
	NextPageToken string       `json:"nextPageToken"`
}

type signatureBody struct {
	R     string `json:"r"`
	S     string `json:"s"`
	Recid *byte  `json:"recid"`
}

type signatureResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Reason    string        `json:"reason"`
	Signature signatureBody `json:"signature"`
}
