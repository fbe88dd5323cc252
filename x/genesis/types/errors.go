package types

import (
	errorsmod "cosmossdk.io/errors"
)

// x/genesis module sentinel errors
var (
	ErrPolicyViolation  = errorsmod.Register(ModuleName, 1, "policy violation")
	ErrNotInitialized   = errorsmod.Register(ModuleName, 2, "genesis kernel not initialized")
	ErrInvalidOperation = errorsmod.Register(ModuleName, 3, "invalid operation")
	ErrNodeLimit        = errorsmod.Register(ModuleName, 4, "network node limit reached")
	ErrPinFailed        = errorsmod.Register(ModuleName, 5, "failed to pin genesis state")
)
