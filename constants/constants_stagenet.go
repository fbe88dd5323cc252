//go:build stagenet

package constants

const Network = "stagenet"

const maxNetworkNodes = 16 // stagenet runs a reduced node set
