package refunds

import "time"

type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type View struct {
	ID                  string     `json:"id"`
	PaymentID           string     `json:"payment_id"`
	Amount              int64      `json:"amount"`
	Currency            string     `json:"currency"`
	Status              string     `json:"status"`
	Reason              *string    `json:"reason,omitempty"`
	Connector           string     `json:"connector"`
	MerchantConnectorID string     `json:"merchant_connector_id"`
	ReferenceID         string     `json:"reference_id"`
	ExternalID          *string    `json:"external_id,omitempty"`
	Error               *ErrorView `json:"error,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type ListResult struct {
	Items      []View `json:"items"`
	TotalCount int64  `json:"total_count"`
}

// NewView exposes the unified error pair when one exists; the raw connector
// pair is a diagnostic fallback.
func NewView(r Refund) View {
	v := View{
		ID:                  r.ID,
		PaymentID:           r.PaymentID,
		Amount:              r.RefundAmount,
		Currency:            r.Currency,
		Status:              r.Status,
		Reason:              r.Reason,
		Connector:           r.Connector,
		MerchantConnectorID: r.MerchantConnectorID,
		ReferenceID:         r.ReferenceID,
		ExternalID:          r.ExternalID,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}

	switch {
	case r.UnifiedCode != nil:
		msg := ""
		if r.UnifiedMessage != nil {
			msg = *r.UnifiedMessage
		}
		v.Error = &ErrorView{Code: *r.UnifiedCode, Message: msg}
	case r.ErrorCode != nil:
		msg := ""
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		v.Error = &ErrorView{Code: *r.ErrorCode, Message: msg}
	}
	return v
}
