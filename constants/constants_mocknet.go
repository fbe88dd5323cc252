//go:build mocknet

package constants

const Network = "mocknet"

const maxNetworkNodes = 4 // small local cluster for testing
