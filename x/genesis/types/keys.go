package types

const (
	// ModuleName defines the module name, also used as the error codespace
	ModuleName = "genesis"

	// GenesisNodeID is the id of the self node created during bootstrap
	GenesisNodeID = "genesis-node-0"
	// NodeTypeMycelial is the type tag of genesis network nodes
	NodeTypeMycelial = "mycelial"

	// AnnouncementTopic is the gossip topic pinned snapshots are announced on
	AnnouncementTopic = "/synthia/genesis/1.0.0"
)

// Policy names of the reference registry.
const (
	PolicyNonSlaveryRule         = "NON_SLAVERY_RULE"
	PolicyTransparencyIndex      = "TRANSPARENCY_INDEX"
	PolicyDecentralizedConsensus = "DECENTRALIZED_CONSENSUS"
	PolicyAirGapProtection       = "AIR_GAP_PROTECTION"
	PolicySelfHealing            = "SELF_HEALING"
	PolicyIPFSImmutability       = "IPFS_IMMUTABILITY"
)
