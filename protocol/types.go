// Package protocol defines the gpsd JSON message catalog and the line codec.
//
// Every concrete message type has a wire tag (the "class" property) and a
// fixed chain of ancestor types used for handler dispatch. The hierarchy is a
// static table, see catalog.go.
package protocol

// Type identifies a message type, concrete or abstract.
type Type uint8

// Message is a decoded gpsd object.
type Message interface {
	// Type returns the concrete catalog type of the message
	Type() Type
}

// Command is a message a client may send. The server answers a command with
// a message of the same concrete type.
type Command interface {
	Message
	isCommand()
}

// Report is a message the server streams in watch mode.
type Report interface {
	Message
	isReport()
}

// NMEAMode is the fix mode carried by TPV reports.
type NMEAMode int

const (
	ModeUnknown NMEAMode = iota
	ModeNoFix
	Mode2D
	Mode3D
)

func (m NMEAMode) String() string {
	switch m {
	case ModeNoFix:
		return "no fix"
	case Mode2D:
		return "2D"
	case Mode3D:
		return "3D"
	default:
		return "unknown"
	}
}

// HasFix reports whether the mode carries a usable position.
func (m NMEAMode) HasFix() bool {
	return m >= Mode2D
}

// Parity is a serial device parity setting.
type Parity string

const (
	ParityNone Parity = "N"
	ParityOdd  Parity = "O"
	ParityEven Parity = "E"
)

func (p Parity) Valid() bool {
	switch p {
	case ParityNone, ParityOdd, ParityEven:
		return true
	}
	return false
}
