package protocol

import "github.com/gear6io/gpsd4go/pkg/errors"

var (
	ErrMalformedPayload = errors.MustNewCode("protocol.malformed_payload")
	ErrUnknownType      = errors.MustNewCode("protocol.unknown_type")
	ErrEncodeFailed     = errors.MustNewCode("protocol.encode_failed")
)
