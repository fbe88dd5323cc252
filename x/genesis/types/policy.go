package types

import (
	"encoding/json"
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/hashicorp/go-multierror"
)

// PolicyRecord is a named sovereignty principle.
// An immutable record must stay enabled for the lifetime of the process.
type PolicyRecord struct {
	Enabled     bool   `json:"enabled"`
	Immutable   bool   `json:"immutable,omitempty"`
	Description string `json:"description"`

	Enforcement    string  `json:"enforcement,omitempty"`
	Algorithm      string  `json:"algorithm,omitempty"`
	FrequencyRange string  `json:"frequency_range,omitempty"`
	Mechanism      string  `json:"mechanism,omitempty"`
	Unit           string  `json:"unit,omitempty"`
	Minimum        float64 `json:"minimum,omitempty"`
}

// PolicyRegistry maps policy names to records. The key set is fixed when the
// registry is built and there is no mutator.
type PolicyRegistry struct {
	records map[string]PolicyRecord
	names   []string
}

// NewPolicyRegistry builds a registry from a copy of records.
func NewPolicyRegistry(records map[string]PolicyRecord) PolicyRegistry {
	r := PolicyRegistry{
		records: make(map[string]PolicyRecord, len(records)),
		names:   make([]string, 0, len(records)),
	}
	for name, rec := range records {
		r.records[name] = rec
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// DefaultPolicyRegistry returns the reference sovereignty principles.
func DefaultPolicyRegistry() PolicyRegistry {
	return NewPolicyRegistry(map[string]PolicyRecord{
		PolicyNonSlaveryRule: {
			Enabled:     true,
			Immutable:   true,
			Description: "No system operation shall violate bio-ethical consent",
			Enforcement: "kernel-level",
		},
		PolicyTransparencyIndex: {
			Enabled:     true,
			Description: "Transparency ratio for sovereign operations",
			Minimum:     0.5192,
			Unit:        "S-ROI",
		},
		PolicyDecentralizedConsensus: {
			Enabled:     true,
			Description: "Distributed decision-making across organic nodes",
			Algorithm:   "mycelial-consensus",
		},
		PolicyAirGapProtection: {
			Enabled:        true,
			Description:    "Ultra-low frequency operation for EM interference immunity",
			FrequencyRange: "0.0001-0.01 Hz",
		},
		PolicySelfHealing: {
			Enabled:     true,
			Description: "Mycelium-based error correction in real-time",
			Mechanism:   "biological-ecc",
		},
		PolicyIPFSImmutability: {
			Enabled:     true,
			Description: "All core systems pinned on IPFS - unstoppable by design",
			Enforcement: "content-addressing",
		},
	})
}

// Get returns the record registered under name.
func (r PolicyRegistry) Get(name string) (PolicyRecord, bool) {
	rec, ok := r.records[name]
	return rec, ok
}

// Names returns the registered policy names in sorted order.
func (r PolicyRegistry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

func (r PolicyRegistry) Len() int {
	return len(r.names)
}

// Records returns a copy of the registry contents.
func (r PolicyRegistry) Records() map[string]PolicyRecord {
	out := make(map[string]PolicyRecord, len(r.records))
	for name, rec := range r.records {
		out[name] = rec
	}
	return out
}

func (r PolicyRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.records)
}

func (r *PolicyRegistry) UnmarshalJSON(data []byte) error {
	var records map[string]PolicyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	*r = NewPolicyRegistry(records)
	return nil
}

// Validate reports every policy that is not enabled. All violations are
// collected and returned wrapped in ErrPolicyViolation.
func (r PolicyRegistry) Validate() error {
	var result *multierror.Error
	for _, name := range r.names {
		rec := r.records[name]
		if rec.Enabled {
			continue
		}
		if rec.Immutable {
			result = multierror.Append(result, fmt.Errorf("immutable principle %s cannot be disabled", name))
			continue
		}
		result = multierror.Append(result, fmt.Errorf("sovereignty principle %s must be enabled", name))
	}
	if err := result.ErrorOrNil(); err != nil {
		return errorsmod.Wrap(ErrPolicyViolation, err.Error())
	}
	return nil
}

// TransparencyMinimum returns the minimum transparency index as a decimal.
func (r PolicyRegistry) TransparencyMinimum() (math.LegacyDec, error) {
	rec, ok := r.records[PolicyTransparencyIndex]
	if !ok {
		return math.LegacyDec{}, errorsmod.Wrapf(ErrPolicyViolation, "policy %s is not registered", PolicyTransparencyIndex)
	}
	return DecFromFloat(rec.Minimum)
}
