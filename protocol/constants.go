package protocol

// Abstract types, used only as dispatch targets
const (
	TypeMessage Type = iota
	TypeReport
	TypeCommand
)

// Reports
const (
	TypeTPV Type = iota + 16
	TypeSKY
	TypeGST
	TypeATT
	TypeTOFF
	TypePPS
)

// Commands
const (
	TypeVersion Type = iota + 32
	TypeWatch
	TypeDevice
	TypeDevices
	TypePoll
)

const TypeError Type = 48

var typeNames = map[Type]string{
	TypeMessage: "Message",
	TypeReport:  "Report",
	TypeCommand: "Command",
	TypeTPV:     "TPV",
	TypeSKY:     "SKY",
	TypeGST:     "GST",
	TypeATT:     "ATT",
	TypeTOFF:    "TOFF",
	TypePPS:     "PPS",
	TypeVersion: "VERSION",
	TypeWatch:   "WATCH",
	TypeDevice:  "DEVICE",
	TypeDevices: "DEVICES",
	TypePoll:    "POLL",
	TypeError:   "ERROR",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// DefaultPort is the TCP port gpsd listens on.
const DefaultPort = 2947
