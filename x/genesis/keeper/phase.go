package keeper

// Phase is the last bootstrap step the sequencer completed.
// Phases only move forward.
type Phase int

const (
	PhaseUninitialized Phase = iota
	// PhaseValidating is reached once the policy registry validated
	PhaseValidating
	PhaseNetworkBootstrapped
	PhaseResonanceSynced
	PhasePolicyActive
	// PhasePinned is reached once the pin attempt finished or was handed to
	// the background, whether it succeeded or not
	PhasePinned
	PhaseInitialized
)

var phaseNames = [...]string{
	PhaseUninitialized:       "uninitialized",
	PhaseValidating:          "validating",
	PhaseNetworkBootstrapped: "network_bootstrapped",
	PhaseResonanceSynced:     "resonance_synced",
	PhasePolicyActive:        "policy_active",
	PhasePinned:              "pinned",
	PhaseInitialized:         "initialized",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
