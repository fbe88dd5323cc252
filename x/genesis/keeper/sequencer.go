package keeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/x/genesis/types"
)

const DefaultPinTimeout = 30 * time.Second

// Sequencer runs the genesis bootstrap sequence and owns the kernel state:
// phase, completion timestamp, node list, sovereignty state and pin outcome.
type Sequencer struct {
	constants  constants.Table
	policies   types.PolicyRegistry
	pinner     types.StoragePinner
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	pinTimeout time.Duration
	awaitPin   bool
	now        func() time.Time

	// initMu serializes Initialize, mu guards the fields below
	initMu sync.Mutex
	mu     sync.RWMutex

	phase          Phase
	timestamp      string
	nodes          []types.NetworkNode
	sovereignty    *types.SovereigntyState
	pin            *PinFuture
	storageAddress string
	pinErr         string
}

type Option func(*Sequencer)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sequencer) { s.metrics = m }
}

func WithPinTimeout(d time.Duration) Option {
	return func(s *Sequencer) {
		if d > 0 {
			s.pinTimeout = d
		}
	}
}

// WithBackgroundPin makes Initialize hand the pin off instead of awaiting it.
// The outcome is recorded when it arrives, PinResult exposes it.
func WithBackgroundPin() Option {
	return func(s *Sequencer) { s.awaitPin = false }
}

func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) { s.now = now }
}

// NewSequencer creates a sequencer over the given constants and policies.
// pinner may be nil, the pin step is then skipped.
func NewSequencer(table constants.Table, policies types.PolicyRegistry, pinner types.StoragePinner, opts ...Option) (*Sequencer, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid constants table: %w", err)
	}
	s := &Sequencer{
		constants:  table,
		policies:   policies,
		pinner:     pinner,
		logger:     log.With().Str("module", "genesis_sequencer").Logger(),
		pinTimeout: DefaultPinTimeout,
		awaitPin:   true,
		now:        time.Now,
		nodes:      make([]types.NetworkNode, 0, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type bootstrapStep struct {
	phase Phase
	name  string
	run   func(ctx context.Context) error
}

func (s *Sequencer) steps() []bootstrapStep {
	return []bootstrapStep{
		{PhaseValidating, "validate_policies", s.validatePolicies},
		{PhaseNetworkBootstrapped, "bootstrap_network", s.bootstrapNetwork},
		{PhaseResonanceSynced, "synchronize_resonance", s.synchronizeResonance},
		{PhasePolicyActive, "activate_non_slavery_rule", s.activateNonSlaveryRule},
		{PhasePinned, "pin_to_storage", s.pinToStorage},
		{PhaseInitialized, "complete", s.complete},
	}
}

// Initialize runs the bootstrap sequence and returns the resulting snapshot.
// Once initialized further calls only log a warning and return the current
// snapshot. A failed run is not rolled back: the sequencer keeps the phase it
// reached and the next call resumes from the first incomplete step.
func (s *Sequencer) Initialize(ctx context.Context) (types.GenesisSnapshot, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	phase := s.Phase()
	if phase == PhaseInitialized {
		s.logger.Warn().Msg("genesis kernel already initialized")
		return s.GenesisState(), nil
	}
	s.logger.Info().Str("phase", phase.String()).Msg("initializing genesis kernel")

	for _, step := range s.steps() {
		if phase >= step.phase {
			continue
		}
		if err := ctx.Err(); err != nil {
			return types.GenesisSnapshot{}, fmt.Errorf("genesis bootstrap interrupted before %s: %w", step.name, err)
		}
		if err := step.run(ctx); err != nil {
			s.metrics.IncrCounter(metrics.MetricNameBootstrapFailures)
			s.logger.Error().Err(err).Str("step", step.name).Msg("genesis bootstrap aborted")
			return types.GenesisSnapshot{}, err
		}
		s.setPhase(step.phase)
		phase = step.phase
	}

	s.logger.Info().Msg("genesis kernel initialized successfully")
	s.logger.Info().Msg("lex amoris protection active")
	return s.GenesisState(), nil
}

func (s *Sequencer) validatePolicies(_ context.Context) error {
	s.logger.Info().Int("policies", s.policies.Len()).Msg("validating sovereignty principles")
	if err := s.policies.Validate(); err != nil {
		s.metrics.IncrCounter(metrics.MetricNamePolicyViolations)
		return err
	}
	s.logger.Info().Msg("all sovereignty principles validated")
	return nil
}

func (s *Sequencer) bootstrapNetwork(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.nodes) >= s.constants.MaxNetworkNodes {
		return errorsmod.Wrapf(types.ErrNodeLimit, "network already holds %d of %d nodes", len(s.nodes), s.constants.MaxNetworkNodes)
	}
	s.nodes = append(s.nodes, types.NewGenesisNode(s.constants.ResonanceFrequency, s.constants.GenesisTimestamp))
	s.metrics.IncrCounter(metrics.MetricNameNodesBootstrapped)
	s.logger.Info().Int("nodes", len(s.nodes)).Msg("network bootstrapped with genesis node")
	return nil
}

func (s *Sequencer) synchronizeResonance(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes {
		s.nodes[i].Frequency = s.constants.ResonanceFrequency
		s.nodes[i].Synchronized = true
	}
	s.logger.Info().Float64("frequency_hz", s.constants.ResonanceFrequency).Int("nodes", len(s.nodes)).Msg("resonance synchronized across all nodes")
	return nil
}

func (s *Sequencer) activateNonSlaveryRule(_ context.Context) error {
	nsr, ok := s.policies.Get(types.PolicyNonSlaveryRule)
	if !ok {
		s.metrics.IncrCounter(metrics.MetricNamePolicyViolations)
		return errorsmod.Wrapf(types.ErrPolicyViolation, "%s is not registered", types.PolicyNonSlaveryRule)
	}
	if !nsr.Enabled || !nsr.Immutable {
		s.metrics.IncrCounter(metrics.MetricNamePolicyViolations)
		return errorsmod.Wrapf(types.ErrPolicyViolation, "%s must be enabled and immutable", types.PolicyNonSlaveryRule)
	}
	s.mu.Lock()
	s.sovereignty = &types.SovereigntyState{
		NSRActive:         true,
		EnforcementLevel:  nsr.Enforcement,
		BioEthicalConsent: true,
	}
	s.mu.Unlock()
	s.logger.Info().Str("enforcement", nsr.Enforcement).Msg("NSR active, bio-ethical constraints enforced")
	return nil
}

func (s *Sequencer) pinToStorage(ctx context.Context) error {
	if s.pinner == nil {
		s.logger.Warn().Msg("no storage pinner configured, skipping genesis pin")
		return nil
	}
	payload := types.NewPinPayload(s.constants, s.policies, constants.FormatTimestamp(s.now()))
	s.logger.Info().Str("expected_anchor", s.constants.StorageAnchorID).Msg("pinning genesis state")

	if !s.awaitPin {
		future := startPin(context.WithoutCancel(ctx), s.pinTimeout, s.pinner, payload)
		s.setPinFuture(future)
		go func() {
			<-future.Done()
			s.recordPin(future.cid, future.err)
		}()
		return nil
	}

	future := startPin(ctx, s.pinTimeout, s.pinner, payload)
	s.setPinFuture(future)
	waitCtx, cancel := context.WithTimeout(ctx, s.pinTimeout)
	defer cancel()
	c, err := future.Wait(waitCtx)
	s.recordPin(c, err)
	return nil
}

// recordPin stores a pin outcome. Pin failures never abort the bootstrap.
func (s *Sequencer) recordPin(c cid.Cid, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.pinErr = errorsmod.Wrap(types.ErrPinFailed, err.Error()).Error()
		s.metrics.IncrCounter(metrics.MetricNamePinsFailed)
		s.logger.Error().Err(err).Msg("failed to pin genesis state, continuing without storage anchor")
		return
	}
	s.storageAddress = c.String()
	s.pinErr = ""
	s.metrics.IncrCounter(metrics.MetricNamePinsSucceeded)
	ev := s.logger.Info().Str("cid", s.storageAddress)
	if s.storageAddress != s.constants.StorageAnchorID {
		ev = ev.Str("expected_anchor", s.constants.StorageAnchorID)
	}
	ev.Msg("genesis state pinned")
}

func (s *Sequencer) complete(_ context.Context) error {
	s.mu.Lock()
	s.timestamp = constants.FormatTimestamp(s.now())
	s.mu.Unlock()
	s.metrics.IncrCounter(metrics.MetricNameBootstrapRuns)
	return nil
}

func (s *Sequencer) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p > s.phase {
		s.phase = p
	}
}

func (s *Sequencer) setPinFuture(f *PinFuture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = f
}

// Phase returns the last completed bootstrap step.
func (s *Sequencer) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// IsInitialized reports whether the bootstrap sequence completed.
func (s *Sequencer) IsInitialized() bool {
	return s.Phase() == PhaseInitialized
}

// PinResult returns the future of the last pin attempt, nil if none was made.
func (s *Sequencer) PinResult() *PinFuture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pin
}

// GenesisState returns a snapshot of the current state. It never blocks
// behind a running Initialize.
func (s *Sequencer) GenesisState() types.GenesisSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]types.NetworkNode, len(s.nodes))
	copy(nodes, s.nodes)
	var sovereignty *types.SovereigntyState
	if s.sovereignty != nil {
		st := *s.sovereignty
		sovereignty = &st
	}
	return types.GenesisSnapshot{
		Initialized:      s.phase == PhaseInitialized,
		Phase:            s.phase.String(),
		Timestamp:        s.timestamp,
		Constants:        s.constants,
		Principles:       s.policies,
		SovereigntyState: sovereignty,
		NetworkNodes:     nodes,
		Version:          s.constants.ProtocolVersion,
		StorageAddress:   s.storageAddress,
		PinError:         s.pinErr,
	}
}
