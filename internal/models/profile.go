// internal/models/profile.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"crediflow/internal/common/validation"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports which fields of a loosely-typed record failed.
type ValidationError struct {
	Entity string
	Errors []validation.ValidationError
}

func (e *ValidationError) Error() string {
	result := validation.ValidationResult{Errors: e.Errors}
	return fmt.Sprintf("%s validation failed: %s", e.Entity, result.Summary())
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields lists the failing field names.
func (e *ValidationError) Fields() []string {
	result := validation.ValidationResult{Errors: e.Errors}
	return result.Fields()
}

func check(entity string, schema *validation.Schema, doc map[string]interface{}, pre ...validation.ValidationError) error {
	result, err := schema.Validate(doc)
	if err != nil {
		return &ValidationError{Entity: entity, Errors: []validation.ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "UNREADABLE",
		}}}
	}
	if !result.Valid || len(pre) > 0 {
		return &ValidationError{Entity: entity, Errors: append(pre, result.Errors...)}
	}
	return nil
}

// Profile document field names. phone_number is also the store key.
const (
	FieldCustID           = "cust_id"
	FieldFullName         = "full_name"
	FieldPhoneNumber      = "phone_number"
	FieldKYCVerified      = "kyc_verified"
	FieldAnnualIncome     = "annual_income"
	FieldExistingEMIs     = "existing_emis"
	FieldBureauScore      = "bureau_score"
	FieldPreApprovedLimit = "pre_approved_limit"
)

var profileKinds = map[string]fieldKind{
	FieldCustID:           kindString,
	FieldFullName:         kindString,
	FieldPhoneNumber:      kindString,
	FieldKYCVerified:      kindBool,
	FieldAnnualIncome:     kindInt,
	FieldExistingEMIs:     kindInt,
	FieldBureauScore:      kindInt,
	FieldPreApprovedLimit: kindInt,
}

var profileSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["cust_id", "full_name", "phone_number", "annual_income", "bureau_score"],
	"properties": {
		"cust_id":            {"type": "string"},
		"full_name":          {"type": "string"},
		"phone_number":       {"type": "string", "minLength": 1},
		"kyc_verified":       {"type": "boolean"},
		"annual_income":      {"type": "integer", "minimum": 0},
		"existing_emis":      {"type": "integer", "minimum": 0},
		"bureau_score":       {"type": "integer"},
		"pre_approved_limit": {"type": "integer", "minimum": 0}
	}
}`)

// CustomerProfile is one customer's credit-relevant attributes as stored
// under its phone number.
type CustomerProfile struct {
	CustID           string `json:"cust_id"`
	FullName         string `json:"full_name"`
	PhoneNumber      string `json:"phone_number"`
	KYCVerified      bool   `json:"kyc_verified"`
	AnnualIncome     int64  `json:"annual_income"`
	ExistingEMIs     int64  `json:"existing_emis"`
	BureauScore      int64  `json:"bureau_score"` // 0 means no credit history
	PreApprovedLimit int64  `json:"pre_approved_limit"`
}

// ProfileFromMap validates raw and builds a profile, filling kyc_verified,
// existing_emis and pre_approved_limit when absent. Unknown keys are ignored.
func ProfileFromMap(raw map[string]interface{}) (*CustomerProfile, error) {
	doc, rangeErrs := normalize(raw, profileKinds)
	if err := check("CustomerProfile", profileSchema, doc, rangeErrs...); err != nil {
		return nil, err
	}

	return &CustomerProfile{
		CustID:           stringField(doc, FieldCustID),
		FullName:         stringField(doc, FieldFullName),
		PhoneNumber:      stringField(doc, FieldPhoneNumber),
		KYCVerified:      boolField(doc, FieldKYCVerified, false),
		AnnualIncome:     intField(doc, FieldAnnualIncome, 0),
		ExistingEMIs:     intField(doc, FieldExistingEMIs, 0),
		BureauScore:      intField(doc, FieldBureauScore, 0),
		PreApprovedLimit: intField(doc, FieldPreApprovedLimit, 0),
	}, nil
}

// ProfileFromJSON decodes a stored document and validates it.
func ProfileFromJSON(data []byte) (*CustomerProfile, error) {
	raw, err := DecodeDocument(data)
	if err != nil {
		return nil, &ValidationError{Entity: "CustomerProfile", Errors: []validation.ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "UNREADABLE",
		}}}
	}
	return ProfileFromMap(raw)
}

// DecodeDocument decodes a JSON object keeping numbers exact.
func DecodeDocument(data []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if raw == nil {
		return nil, errors.New("decode document: not an object")
	}
	return raw, nil
}

// Document returns the canonical field set written to the store.
func (p *CustomerProfile) Document() map[string]interface{} {
	return map[string]interface{}{
		FieldCustID:           p.CustID,
		FieldFullName:         p.FullName,
		FieldPhoneNumber:      p.PhoneNumber,
		FieldKYCVerified:      p.KYCVerified,
		FieldAnnualIncome:     p.AnnualIncome,
		FieldExistingEMIs:     p.ExistingEMIs,
		FieldBureauScore:      p.BureauScore,
		FieldPreApprovedLimit: p.PreApprovedLimit,
	}
}

// MarshalDocument encodes the canonical document.
func (p *CustomerProfile) MarshalDocument() ([]byte, error) {
	return json.Marshal(p)
}
