//go:build !mocknet && !stagenet

package constants

// Network is the network flavour this binary was built for.
const Network = "mainnet"

const maxNetworkNodes = 102 // full mycelial network
