// internal/models/loan.go
package models

import "crediflow/internal/common/validation"

var loanRequestKinds = map[string]fieldKind{
	FieldPhoneNumber:          kindString,
	"requested_amount":        kindInt,
	"requested_tenure_months": kindInt,
}

var loanRequestSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["phone_number", "requested_amount", "requested_tenure_months"],
	"properties": {
		"phone_number":            {"type": "string", "minLength": 1},
		"requested_amount":        {"type": "integer", "minimum": 1},
		"requested_tenure_months": {"type": "integer", "minimum": 1}
	}
}`)

// LoanRequest is an inbound ask linked to a profile by phone number. It is a
// transport shape only and is never persisted.
type LoanRequest struct {
	PhoneNumber           string `json:"phone_number"`
	RequestedAmount       int64  `json:"requested_amount"`
	RequestedTenureMonths int64  `json:"requested_tenure_months"`
}

func LoanRequestFromMap(raw map[string]interface{}) (*LoanRequest, error) {
	doc, rangeErrs := normalize(raw, loanRequestKinds)
	if err := check("LoanRequest", loanRequestSchema, doc, rangeErrs...); err != nil {
		return nil, err
	}
	return &LoanRequest{
		PhoneNumber:           stringField(doc, FieldPhoneNumber),
		RequestedAmount:       intField(doc, "requested_amount", 0),
		RequestedTenureMonths: intField(doc, "requested_tenure_months", 0),
	}, nil
}

func (r *LoanRequest) Document() map[string]interface{} {
	return map[string]interface{}{
		FieldPhoneNumber:          r.PhoneNumber,
		"requested_amount":        r.RequestedAmount,
		"requested_tenure_months": r.RequestedTenureMonths,
	}
}
