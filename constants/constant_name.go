package constants

// ConstantName represents the names of the genesis constants.
type ConstantName int

const (
	// ResonanceFrequency is the core resonance frequency in Hz, synchronized
	// across every node during bootstrap.
	ResonanceFrequency ConstantName = iota
	SovereigntyRatio
	// HeartbeatCycle is the pulse interval in seconds.
	HeartbeatCycle
	// GenesisTimestamp is captured once, when the process starts.
	GenesisTimestamp
	ProtocolVersion
	// StorageAnchorID is the expected content address of the genesis snapshot.
	StorageAnchorID
	MaxNetworkNodes
)

var constantNames = map[ConstantName]string{
	ResonanceFrequency: "RESONANCE_FREQUENCY",
	SovereigntyRatio:   "SOVEREIGNTY_RATIO",
	HeartbeatCycle:     "HEARTBEAT_CYCLE",
	GenesisTimestamp:   "GENESIS_TIMESTAMP",
	ProtocolVersion:    "PROTOCOL_VERSION",
	StorageAnchorID:    "IPFS_GENESIS_CID",
	MaxNetworkNodes:    "MAX_NETWORK_NODES",
}

// AllNames returns every constant name in declaration order.
func AllNames() []ConstantName {
	return []ConstantName{
		ResonanceFrequency,
		SovereigntyRatio,
		HeartbeatCycle,
		GenesisTimestamp,
		ProtocolVersion,
		StorageAnchorID,
		MaxNetworkNodes,
	}
}

func (c ConstantName) String() string {
	if s, ok := constantNames[c]; ok {
		return s
	}
	return "ConstantName(unknown)"
}

func FromString(s string) (ConstantName, bool) {
	switch s {
	case "RESONANCE_FREQUENCY":
		return ResonanceFrequency, true
	case "SOVEREIGNTY_RATIO":
		return SovereigntyRatio, true
	case "HEARTBEAT_CYCLE":
		return HeartbeatCycle, true
	case "GENESIS_TIMESTAMP":
		return GenesisTimestamp, true
	case "PROTOCOL_VERSION":
		return ProtocolVersion, true
	case "IPFS_GENESIS_CID":
		return StorageAnchorID, true
	case "MAX_NETWORK_NODES":
		return MaxNetworkNodes, true
	default:
		return 0, false
	}
}
