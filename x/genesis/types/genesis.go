package types

import (
	"github.com/lexamoris/synthia/constants"
)

// SovereigntyState is created once, when the non-slavery rule is activated.
type SovereigntyState struct {
	NSRActive         bool   `json:"nsrActive"`
	EnforcementLevel  string `json:"enforcement"`
	BioEthicalConsent bool   `json:"bioEthicalConsent"`
}

// GenesisSnapshot is a read-only projection of the kernel state.
type GenesisSnapshot struct {
	Initialized      bool              `json:"initialized"`
	Phase            string            `json:"phase"`
	Timestamp        string            `json:"timestamp,omitempty"`
	Constants        constants.Table   `json:"constants"`
	Principles       PolicyRegistry    `json:"principles"`
	SovereigntyState *SovereigntyState `json:"sovereigntyState"`
	NetworkNodes     []NetworkNode     `json:"networkNodes"`
	Version          string            `json:"version"`

	// StorageAddress is the content address returned by the pinning
	// collaborator, empty until a pin succeeds.
	StorageAddress string `json:"storageAddress,omitempty"`
	PinError       string `json:"pinError,omitempty"`
}

// PinPayload is the document handed to the storage pinning collaborator.
type PinPayload struct {
	Constants  constants.Table `json:"constants"`
	Principles PolicyRegistry  `json:"principles"`
	Timestamp  string          `json:"timestamp"`
	Version    string          `json:"version"`
}

// NewPinPayload builds the pin document for the given state.
func NewPinPayload(table constants.Table, policies PolicyRegistry, timestamp string) PinPayload {
	return PinPayload{
		Constants:  table,
		Principles: policies,
		Timestamp:  timestamp,
		Version:    table.ProtocolVersion,
	}
}
