package domain

// TokenAccount is a canonical token account owned by a scanned wallet.
// Never persisted.
type TokenAccount struct {
	Address  string // associated token account address
	Mint     string // token mint address
	Amount   string // raw base units, decimal string
	Decimals uint8  // mint decimals
	IsFrozen bool   // frozen accounts cannot be closed
	State    string // initialized | frozen
}

// IsEmpty reports whether the account holds zero base units.
func (a TokenAccount) IsEmpty() bool {
	return a.Amount == "0"
}

// IsReclaimable reports whether the account can be closed for its rent.
func (a TokenAccount) IsReclaimable() bool {
	return a.IsEmpty() && !a.IsFrozen
}
