package api

import (
	"ata-reclaim/internal/apperr"
	"ata-reclaim/internal/domain"
)

// failureResponse is the body of every failed request.
type failureResponse struct {
	Success bool          `json:"success"`
	Reason  apperr.Reason `json:"reason"`
	Message string        `json:"message"`
}

type scanRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type tokenAccountDTO struct {
	Address  string `json:"address"`
	Mint     string `json:"mint"`
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
	IsFrozen bool   `json:"isFrozen"`
	State    string `json:"state"`
}

type scanResponse struct {
	Success                 bool              `json:"success"`
	WalletAddress           string            `json:"walletAddress"`
	TotalATAs               int               `json:"totalATAs"`
	EmptyATAs               int               `json:"emptyATAs"`
	ReclaimableSOL          float64           `json:"reclaimableSOL"`
	ReclaimableSOLFormatted string            `json:"reclaimableSOLFormatted"`
	RentPerATA              float64           `json:"rentPerATA"`
	Accounts                []tokenAccountDTO `json:"accounts"`
}

type mintRequest struct {
	WalletAddress    string `json:"walletAddress"`
	ReclaimSignature string `json:"reclaimSignature"`
}

type mintResponse struct {
	Success     bool   `json:"success"`
	Status      string `json:"status"`
	MintAddress string `json:"mintAddress"`
	Signature   string `json:"signature,omitempty"`
}

type voiceTokenRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
	Message       string `json:"message"`
	Room          string `json:"room"`
}

type voiceTokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	URL     string `json:"url"`
	Room    string `json:"room"`
}

func toTokenAccountDTOs(accounts []domain.TokenAccount) []tokenAccountDTO {
	out := make([]tokenAccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, tokenAccountDTO{
			Address:  a.Address,
			Mint:     a.Mint,
			Amount:   a.Amount,
			Decimals: a.Decimals,
			IsFrozen: a.IsFrozen,
			State:    a.State,
		})
	}
	return out
}
