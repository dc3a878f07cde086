package protocol

// TPV is a time-position-velocity report. Error estimates (ep*) are 95%
// confidence bounds in meters, m/s or degrees depending on the field.
type TPV struct {
	Device string    `json:"device,omitempty"`
	Mode   NMEAMode  `json:"mode"`
	Time   Timestamp `json:"time,omitzero"`
	Ept    float64   `json:"ept,omitempty"`
	Lat    float64   `json:"lat,omitempty"`
	Lon    float64   `json:"lon,omitempty"`
	Alt    float64   `json:"alt,omitempty"`
	Epx    float64   `json:"epx,omitempty"`
	Epy    float64   `json:"epy,omitempty"`
	Epv    float64   `json:"epv,omitempty"`
	Track  float64   `json:"track,omitempty"`
	Speed  float64   `json:"speed,omitempty"`
	Climb  float64   `json:"climb,omitempty"`
	Epd    float64   `json:"epd,omitempty"`
	Eps    float64   `json:"eps,omitempty"`
	Epc    float64   `json:"epc,omitempty"`
}

func (*TPV) Type() Type { return TypeTPV }
func (*TPV) isReport()  {}

// Satellite is one entry of a SKY report.
type Satellite struct {
	PRN       int     `json:"PRN"`
	Azimuth   float64 `json:"az"`
	Elevation float64 `json:"el"`
	Signal    float64 `json:"ss"`
	Used      bool    `json:"used"`
	GNSSID    int     `json:"gnssid,omitempty"`
	SVID      int     `json:"svid,omitempty"`
}

// SKY reports the satellites in view and the dilution of precision.
type SKY struct {
	Device     string      `json:"device,omitempty"`
	Time       Timestamp   `json:"time,omitzero"`
	Tdop       float64     `json:"tdop,omitempty"`
	Xdop       float64     `json:"xdop,omitempty"`
	Ydop       float64     `json:"ydop,omitempty"`
	Vdop       float64     `json:"vdop,omitempty"`
	Hdop       float64     `json:"hdop,omitempty"`
	Pdop       float64     `json:"pdop,omitempty"`
	Gdop       float64     `json:"gdop,omitempty"`
	Satellites []Satellite `json:"satellites,omitempty"`
}

func (*SKY) Type() Type { return TypeSKY }
func (*SKY) isReport()  {}

// UsedSatellites counts satellites used in the current fix.
func (s *SKY) UsedSatellites() int {
	n := 0
	for _, sat := range s.Satellites {
		if sat.Used {
			n++
		}
	}
	return n
}

// GST is a pseudorange noise report.
type GST struct {
	Device string    `json:"device,omitempty"`
	Time   Timestamp `json:"time,omitzero"`
	RMS    float64   `json:"rms,omitempty"`
	Major  float64   `json:"major,omitempty"`
	Minor  float64   `json:"minor,omitempty"`
	Orient float64   `json:"orient,omitempty"`
	Lat    float64   `json:"lat,omitempty"`
	Lon    float64   `json:"lon,omitempty"`
	Alt    float64   `json:"alt,omitempty"`
}

func (*GST) Type() Type { return TypeGST }
func (*GST) isReport()  {}

// ATT is a vehicle attitude report from a compass or IMU.
type ATT struct {
	Device      string    `json:"device,omitempty"`
	Time        Timestamp `json:"time,omitzero"`
	Heading     float64   `json:"heading,omitempty"`
	Pitch       float64   `json:"pitch,omitempty"`
	Yaw         float64   `json:"yaw,omitempty"`
	Roll        float64   `json:"roll,omitempty"`
	Dip         float64   `json:"dip,omitempty"`
	MagStatus   string    `json:"mag_st,omitempty"`
	PitchStatus string    `json:"pitch_st,omitempty"`
	YawStatus   string    `json:"yaw_st,omitempty"`
	RollStatus  string    `json:"roll_st,omitempty"`
	MagLen      float64   `json:"mag_len,omitempty"`
	MagX        float64   `json:"mag_x,omitempty"`
	MagY        float64   `json:"mag_y,omitempty"`
	MagZ        float64   `json:"mag_z,omitempty"`
	AccLen      float64   `json:"acc_len,omitempty"`
	AccX        float64   `json:"acc_x,omitempty"`
	AccY        float64   `json:"acc_y,omitempty"`
	AccZ        float64   `json:"acc_z,omitempty"`
	GyroX       float64   `json:"gyro_x,omitempty"`
	GyroY       float64   `json:"gyro_y,omitempty"`
	Depth       float64   `json:"depth,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

func (*ATT) Type() Type { return TypeATT }
func (*ATT) isReport()  {}

// TOFF reports the offset between the GPS time and the system clock at the
// top of a second.
type TOFF struct {
	Device    string `json:"device,omitempty"`
	RealSec   int64  `json:"real_sec"`
	RealNsec  int64  `json:"real_nsec"`
	ClockSec  int64  `json:"clock_sec"`
	ClockNsec int64  `json:"clock_nsec"`
}

func (*TOFF) Type() Type { return TypeTOFF }
func (*TOFF) isReport()  {}

// PPS reports a pulse-per-second edge. Same clock pair as TOFF plus the
// claimed precision as a power of two seconds.
type PPS struct {
	Device    string `json:"device,omitempty"`
	RealSec   int64  `json:"real_sec"`
	RealNsec  int64  `json:"real_nsec"`
	ClockSec  int64  `json:"clock_sec"`
	ClockNsec int64  `json:"clock_nsec"`
	Precision int    `json:"precision,omitempty"`
}

func (*PPS) Type() Type { return TypePPS }
func (*PPS) isReport()  {}

// Error is sent by gpsd when it cannot parse or execute a command.
type Error struct {
	Message string `json:"message"`
}

func (*Error) Type() Type { return TypeError }
