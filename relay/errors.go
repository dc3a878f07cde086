package relay

import "github.com/gear6io/gpsd4go/pkg/errors"

// Error codes for the relay package
var (
	ErrAlreadyAttached = errors.MustNewCode("relay.already_attached")
	ErrHubClosed       = errors.MustNewCode("relay.hub_closed")
	ErrUpgradeFailed   = errors.MustNewCode("relay.upgrade_failed")
)
