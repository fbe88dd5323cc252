package types

// NetworkNode is a participant record in the genesis roster.
type NetworkNode struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Frequency    float64 `json:"frequency"`
	Timestamp    string  `json:"timestamp"`
	Synchronized bool    `json:"synchronized"`
}

// NewGenesisNode returns the self node seeded during bootstrap.
func NewGenesisNode(frequency float64, timestamp string) NetworkNode {
	return NetworkNode{
		ID:        GenesisNodeID,
		Type:      NodeTypeMycelial,
		Frequency: frequency,
		Timestamp: timestamp,
	}
}
