package main

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/gear6io/gpsd4go/client/config"
	"github.com/gear6io/gpsd4go/pkg/units"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// printer serializes output from handlers, which run on several goroutines.
type printer struct {
	mu   sync.Mutex
	out  io.Writer
	unit units.SpeedUnit
}

func newPrinter(out io.Writer, unit units.SpeedUnit) *printer {
	return &printer{out: out, unit: unit}
}

func (p *printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

func (p *printer) raw(msg protocol.Message) {
	data, err := protocol.Marshal(msg)
	if err != nil {
		p.println(pterm.Red(err.Error()))
		return
	}
	p.println(string(data))
}

func (p *printer) tpv(tpv *protocol.TPV) {
	if !tpv.Mode.HasFix() {
		p.println(fmt.Sprintf("%s TPV %s no fix", stamp(tpv.Time), tpv.Device))
		return
	}
	p.println(fmt.Sprintf("%s TPV %s %s lat=%.6f lon=%.6f alt=%.1fm speed=%s track=%.1f",
		stamp(tpv.Time), tpv.Device, pterm.Green(tpv.Mode.String()),
		tpv.Lat, tpv.Lon, tpv.Alt, units.Speed(tpv.Speed).Format(p.unit), tpv.Track))
}

func (p *printer) sky(sky *protocol.SKY) {
	p.println(fmt.Sprintf("%s SKY %s satellites=%d used=%d hdop=%.2f",
		stamp(sky.Time), sky.Device, len(sky.Satellites), sky.UsedSatellites(), sky.Hdop))
}

func (p *printer) pps(pps *protocol.PPS) {
	ref := time.Unix(pps.RealSec, pps.RealNsec)
	clock := time.Unix(pps.ClockSec, pps.ClockNsec)
	p.println(fmt.Sprintf("PPS %s offset=%s", pps.Device, ref.Sub(clock)))
}

func (p *printer) gpsdError(msg protocol.Message) {
	if e, ok := msg.(*protocol.Error); ok {
		p.println(pterm.Red("gpsd: " + e.Message))
	}
}

func stamp(t protocol.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func renderVersion(v *protocol.Version) error {
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Release", "Revision", "Protocol"},
		{v.Release, v.Rev, fmt.Sprintf("%d.%d", v.ProtoMajor, v.ProtoMinor)},
	}).Render()
}

func renderDevices(d *protocol.Devices) error {
	if len(d.Devices) == 0 {
		pterm.Info.Println("gpsd reports no devices")
		return nil
	}

	data := pterm.TableData{{"Path", "Driver", "Activated", "Baud", "Parity/Stop", "Cycle"}}
	for _, dev := range d.Devices {
		serial := "-"
		if dev.Parity != "" {
			serial = fmt.Sprintf("%s/%d", dev.Parity, dev.StopBits)
		}
		data = append(data, []string{
			dev.Path,
			dev.Driver,
			stamp(dev.Activated),
			strconv.Itoa(dev.BPS),
			serial,
			strconv.FormatFloat(dev.Cycle, 'f', 2, 64),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func renderPoll(poll *protocol.Poll) error {
	pterm.Info.Printf("%s, %d active device(s)\n", stamp(poll.Time), poll.Active)
	if len(poll.TPV) == 0 {
		return nil
	}

	data := pterm.TableData{{"Device", "Mode", "Latitude", "Longitude", "Altitude", "Speed"}}
	for _, tpv := range poll.TPV {
		data = append(data, []string{
			tpv.Device,
			tpv.Mode.String(),
			strconv.FormatFloat(tpv.Lat, 'f', 6, 64),
			strconv.FormatFloat(tpv.Lon, 'f', 6, 64),
			strconv.FormatFloat(tpv.Alt, 'f', 1, 64),
			units.Speed(tpv.Speed).Format(units.KilometersPerHour),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func renderConfig(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("gpsd " + cfg.Address())
	fmt.Print(string(data))
	return nil
}
