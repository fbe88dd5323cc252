package types

import (
	"math"

	errorsmod "cosmossdk.io/errors"
)

// Operation describes a request checked against the sovereignty principles.
// Fields are pointers so a missing field can be told apart from a zero value.
type Operation struct {
	RequiresConsent   *bool    `json:"requiresConsent"`
	ConsentGranted    *bool    `json:"consentGranted"`
	TransparencyIndex *float64 `json:"transparencyIndex"`
}

// NewOperation returns an operation with every field set.
func NewOperation(requiresConsent, consentGranted bool, transparencyIndex float64) Operation {
	return Operation{
		RequiresConsent:   &requiresConsent,
		ConsentGranted:    &consentGranted,
		TransparencyIndex: &transparencyIndex,
	}
}

// ValidateBasic checks that every field is present and the index is finite.
func (op Operation) ValidateBasic() error {
	if op.RequiresConsent == nil {
		return errorsmod.Wrap(ErrInvalidOperation, "requiresConsent is required")
	}
	if op.ConsentGranted == nil {
		return errorsmod.Wrap(ErrInvalidOperation, "consentGranted is required")
	}
	if op.TransparencyIndex == nil {
		return errorsmod.Wrap(ErrInvalidOperation, "transparencyIndex is required")
	}
	if math.IsNaN(*op.TransparencyIndex) || math.IsInf(*op.TransparencyIndex, 0) {
		return errorsmod.Wrapf(ErrInvalidOperation, "transparencyIndex must be finite, got %v", *op.TransparencyIndex)
	}
	return nil
}

// ConsentMissing reports whether the operation needs consent it was not given.
// Call ValidateBasic first.
func (op Operation) ConsentMissing() bool {
	return *op.RequiresConsent && !*op.ConsentGranted
}
