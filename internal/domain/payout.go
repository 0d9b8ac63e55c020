package domain

type PayoutReason string

const (
	PayoutReasonSubmission PayoutReason = "submission"
	PayoutReasonEmoji      PayoutReason = "emoji"
	PayoutReasonBonus      PayoutReason = "bonus"
)

type PayoutOutcome string

const (
	PayoutOutcomeSuccess           PayoutOutcome = "success"
	PayoutOutcomeAddressUnresolved PayoutOutcome = "address_unresolved"
	PayoutOutcomePaymentFailed     PayoutOutcome = "payment_failed"
)

type PayoutRequest struct {
	Owner  Owner
	Amount int64
	Reason PayoutReason
	// Ref links the payout back to what triggered it (submission id, batch).
	Ref string
}

type PayoutResult struct {
	TxID       string
	Address    string
	Amount     int64
	TotalSats  int64
	Badge      *BadgeAward
	BonusTxID  string
	BonusError error
}
