package protocol

// Version is both the ?VERSION query and gpsd's banner/answer.
type Version struct {
	Release    string `json:"release,omitempty"`
	Rev        string `json:"rev,omitempty"`
	ProtoMajor int    `json:"proto_major,omitempty"`
	ProtoMinor int    `json:"proto_minor,omitempty"`
}

func (*Version) Type() Type { return TypeVersion }
func (*Version) isCommand() {}

// Watch controls streaming. Enable and JSON are always encoded; the rest only
// when set.
type Watch struct {
	Enable  bool   `json:"enable"`
	JSON    bool   `json:"json"`
	NMEA    bool   `json:"nmea,omitempty"`
	Raw     int    `json:"raw,omitempty"`
	Scaled  bool   `json:"scaled,omitempty"`
	Split24 bool   `json:"split24,omitempty"`
	PPS     bool   `json:"pps,omitempty"`
	Device  string `json:"device,omitempty"`
}

func (*Watch) Type() Type { return TypeWatch }
func (*Watch) isCommand() {}

// NewWatch returns a WATCH command with enable and json set.
func NewWatch(enable, reportJSON bool) *Watch {
	return &Watch{Enable: enable, JSON: reportJSON}
}

// Device describes, or when sent reconfigures, one attached receiver.
type Device struct {
	Path      string    `json:"path,omitempty"`
	Activated Timestamp `json:"activated,omitzero"`
	Flags     int       `json:"flags,omitempty"`
	Driver    string    `json:"driver,omitempty"`
	Subtype   string    `json:"subtype,omitempty"`
	BPS       int       `json:"bps,omitempty"`
	Parity    Parity    `json:"parity,omitempty"`
	StopBits  int       `json:"stopbits,omitempty"`
	Native    int       `json:"native,omitempty"`
	Cycle     float64   `json:"cycle,omitempty"`
	MinCycle  float64   `json:"mincycle,omitempty"`
}

func (*Device) Type() Type { return TypeDevice }
func (*Device) isCommand() {}

// Devices lists every device gpsd knows about.
type Devices struct {
	Devices []Device `json:"devices"`
	Remote  string   `json:"remote,omitempty"`
}

func (*Devices) Type() Type { return TypeDevices }
func (*Devices) isCommand() {}

// Poll is the answer to ?POLL; with the latest fix of each active device.
type Poll struct {
	Time   Timestamp `json:"time,omitzero"`
	Active int       `json:"active"`
	TPV    []TPV     `json:"tpv"`
	SKY    []SKY     `json:"sky"`
}

func (*Poll) Type() Type { return TypePoll }
func (*Poll) isCommand() {}

// Fix returns the first TPV of the poll that carries a position.
func (p *Poll) Fix() (*TPV, bool) {
	for i := range p.TPV {
		if p.TPV[i].Mode.HasFix() {
			return &p.TPV[i], true
		}
	}
	return nil, false
}
