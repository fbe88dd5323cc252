package constants

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// TimestampLayout is the ISO-8601 layout used for every genesis timestamp,
// millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	resonanceFrequency    = 0.0043
	sovereigntyRatio      = 0.5192 // Fibonacci-derived
	heartbeatCycleSeconds = 2.32
	protocolVersion       = "1.0.0"
	storageAnchorID       = "QmSynthiaGenesisBlock"
)

// processStart is captured once when the package is loaded.
var processStart = time.Now().UTC()

// FormatTimestamp formats t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Table holds the genesis constants. It is a value type with no setters,
// every accessor hands out a copy.
type Table struct {
	ResonanceFrequency    float64 `json:"RESONANCE_FREQUENCY"`
	SovereigntyRatio      float64 `json:"SOVEREIGNTY_RATIO"`
	HeartbeatCycleSeconds float64 `json:"HEARTBEAT_CYCLE"`
	GenesisTimestamp      string  `json:"GENESIS_TIMESTAMP"`
	ProtocolVersion       string  `json:"PROTOCOL_VERSION"`
	StorageAnchorID       string  `json:"IPFS_GENESIS_CID"`
	MaxNetworkNodes       int     `json:"MAX_NETWORK_NODES"`
}

var defaultTable = Table{
	ResonanceFrequency:    resonanceFrequency,
	SovereigntyRatio:      sovereigntyRatio,
	HeartbeatCycleSeconds: heartbeatCycleSeconds,
	GenesisTimestamp:      FormatTimestamp(processStart),
	ProtocolVersion:       protocolVersion,
	StorageAnchorID:       storageAnchorID,
	MaxNetworkNodes:       maxNetworkNodes,
}

// Default returns the constants table for the network this binary was built for.
func Default() Table {
	return defaultTable
}

// HeartbeatInterval returns the heartbeat cycle as a duration.
func (t Table) HeartbeatInterval() time.Duration {
	return time.Duration(math.Round(t.HeartbeatCycleSeconds * float64(time.Second)))
}

// Get returns the value of a named constant.
func (t Table) Get(name ConstantName) (any, bool) {
	switch name {
	case ResonanceFrequency:
		return t.ResonanceFrequency, true
	case SovereigntyRatio:
		return t.SovereigntyRatio, true
	case HeartbeatCycle:
		return t.HeartbeatCycleSeconds, true
	case GenesisTimestamp:
		return t.GenesisTimestamp, true
	case ProtocolVersion:
		return t.ProtocolVersion, true
	case StorageAnchorID:
		return t.StorageAnchorID, true
	case MaxNetworkNodes:
		return t.MaxNetworkNodes, true
	default:
		return nil, false
	}
}

// Validate checks that the table is usable for a bootstrap.
func (t Table) Validate() error {
	var result *multierror.Error
	if !positiveFinite(t.ResonanceFrequency) {
		result = multierror.Append(result, fmt.Errorf("resonance frequency must be positive, got %v", t.ResonanceFrequency))
	}
	if !positiveFinite(t.SovereigntyRatio) {
		result = multierror.Append(result, fmt.Errorf("sovereignty ratio must be positive, got %v", t.SovereigntyRatio))
	}
	if !positiveFinite(t.HeartbeatCycleSeconds) {
		result = multierror.Append(result, fmt.Errorf("heartbeat cycle must be positive, got %v", t.HeartbeatCycleSeconds))
	}
	if _, err := time.Parse(TimestampLayout, t.GenesisTimestamp); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid genesis timestamp %q: %w", t.GenesisTimestamp, err))
	}
	if err := validateSemver(t.ProtocolVersion); err != nil {
		result = multierror.Append(result, err)
	}
	if strings.TrimSpace(t.StorageAnchorID) == "" {
		result = multierror.Append(result, errors.New("storage anchor id cannot be empty"))
	}
	if t.MaxNetworkNodes <= 0 {
		result = multierror.Append(result, fmt.Errorf("max network nodes must be greater than 0, got %d", t.MaxNetworkNodes))
	}
	return result.ErrorOrNil()
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func validateSemver(v string) error {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return fmt.Errorf("protocol version %q is not MAJOR.MINOR.PATCH", v)
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return fmt.Errorf("protocol version %q: invalid component %q", v, p)
		}
	}
	return nil
}
