package turnkey

import "encoding/hex"

// Wire shapes for the subset of the custody API this backend consumes.

type walletAccount struct {
	WalletAccountID string `json:"walletAccountId"`
	Curve           string `json:"curve"`
	Path            string `json:"path"`
	AddressFormat   string `json:"addressFormat"`
	Address         string `json:"address"`
}

type listAccountsResponse struct {
	Accounts []walletAccount `json:"accounts"`
}

type activityFailure struct {
	Message string `json:"message"`
}

type signRawPayloadResult struct {
	R string `json:"r"`
	S string `json:"s"`
	V string `json:"v"`
}

type createWalletAccountsResult struct {
	Addresses []string `json:"addresses"`
}

type activityResult struct {
	SignRawPayloadResult       signRawPayloadResult       `json:"signRawPayloadResult"`
	CreateWalletAccountsResult createWalletAccountsResult `json:"createWalletAccountsResult"`
}

type activity struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Failure activityFailure `json:"failure"`
	Result  activityResult  `json:"result"`
}

type signActivityResponse struct {
	Activity activity `json:"activity"`
}

type createAccountsResponse struct {
	Activity activity `json:"activity"`
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}
