package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/x/genesis/types"
)

// InitializationChecker reports whether the genesis bootstrap completed.
type InitializationChecker interface {
	IsInitialized() bool
}

var _ InitializationChecker = &Sequencer{}

// OperationValidator checks operations against the sovereignty principles.
type OperationValidator struct {
	kernel              InitializationChecker
	transparencyMinimum math.LegacyDec
	metrics             *metrics.Metrics
	logger              zerolog.Logger
}

func NewOperationValidator(policies types.PolicyRegistry, kernel InitializationChecker, m *metrics.Metrics) (*OperationValidator, error) {
	if kernel == nil {
		return nil, fmt.Errorf("initialization checker cannot be nil")
	}
	minimum, err := policies.TransparencyMinimum()
	if err != nil {
		return nil, err
	}
	return &OperationValidator{
		kernel:              kernel,
		transparencyMinimum: minimum,
		metrics:             m,
		logger:              log.With().Str("module", "operation_validator").Logger(),
	}, nil
}

// ValidateOperation returns true when op satisfies the non-slavery rule and
// the transparency threshold. A rejected operation is not an error; errors
// are reserved for an uninitialized kernel and malformed operations.
func (v *OperationValidator) ValidateOperation(op types.Operation) (bool, error) {
	if !v.kernel.IsInitialized() {
		return false, types.ErrNotInitialized
	}
	if err := op.ValidateBasic(); err != nil {
		v.metrics.IncrCounter(metrics.MetricNameOperationsMalformed)
		return false, err
	}
	if op.ConsentMissing() {
		v.reject("operation blocked by NSR, consent required", op)
		return false, nil
	}
	if !v.meetsTransparency(*op.TransparencyIndex) {
		v.reject("operation blocked, transparency threshold not met", op)
		return false, nil
	}
	v.metrics.IncrCounter(metrics.MetricNameOperationsAccepted)
	v.logger.Info().Float64("transparency_index", *op.TransparencyIndex).Msg("operation validated against sovereignty principles")
	return true, nil
}

// meetsTransparency compares a finite index with the minimum as decimals.
// An index beyond the decimal range is decided by its sign, the minimum is
// always inside the range.
func (v *OperationValidator) meetsTransparency(index float64) bool {
	dec, err := types.DecFromFloat(index)
	if err != nil {
		v.logger.Debug().Err(err).Float64("transparency_index", index).Msg("transparency index beyond decimal range")
		return index > 0
	}
	return dec.GTE(v.transparencyMinimum)
}

func (v *OperationValidator) reject(reason string, op types.Operation) {
	v.metrics.IncrCounter(metrics.MetricNameOperationsRejected)
	v.logger.Error().
		Bool("requires_consent", *op.RequiresConsent).
		Bool("consent_granted", *op.ConsentGranted).
		Float64("transparency_index", *op.TransparencyIndex).
		Str("minimum", v.transparencyMinimum.String()).
		Msg(reason)
}
