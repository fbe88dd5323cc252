package p2p

import "errors"

var (
	ErrNetworkAlreadyStarted = errors.New("network already started")
	ErrNetworkNotStarted     = errors.New("network not started")
	ErrInvalidKey            = errors.New("invalid key")
	ErrInvalidConfig         = errors.New("invalid config")
)
