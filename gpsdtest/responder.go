package gpsdtest

import (
	"encoding/json"
	"strings"

	"github.com/gear6io/gpsd4go/protocol"
)

// Canned replies used by DefaultResponder.
var (
	VersionReply = `{"class":"VERSION","release":"3.25","rev":"3.25","proto_major":3,"proto_minor":15}`
	DevicesReply = `{"class":"DEVICES","devices":[{"class":"DEVICE","path":"/dev/ttyUSB0","driver":"u-blox","activated":"2024-05-01T10:00:00.000Z","bps":9600,"parity":"N","stopbits":1,"native":1,"cycle":1.00}]}`
	PollReply    = `{"class":"POLL","time":"2024-05-01T10:20:30.000Z","active":1,"tpv":[{"class":"TPV","device":"/dev/ttyUSB0","mode":3,"lat":42.6977,"lon":23.3219,"alt":550.0}],"sky":[]}`
)

// DefaultResponder answers the way gpsd does for the commands the client
// library sends: VERSION, DEVICES and POLL queries, and WATCH with a DEVICES
// list followed by the WATCH echo. Anything else gets an ERROR.
func DefaultResponder(command string) []string {
	tag, body := ParseCommand(command)

	switch tag {
	case "VERSION":
		return []string{VersionReply}
	case "DEVICES":
		return []string{DevicesReply}
	case "POLL":
		return []string{PollReply}
	case "WATCH":
		// gpsd treats a WATCH without "enable" as enabling
		watch := protocol.NewWatch(true, false)
		if body != "" {
			if err := json.Unmarshal([]byte(body), watch); err != nil {
				return []string{errorReply("Invalid WATCH: " + err.Error())}
			}
		}
		echo, err := protocol.Marshal(watch)
		if err != nil {
			return []string{errorReply(err.Error())}
		}
		return []string{DevicesReply, string(echo)}
	default:
		return []string{errorReply("Unrecognized request '" + tag + "'")}
	}
}

// ParseCommand splits "?TAG=<json>" or "?TAG;" into the tag and the JSON body.
func ParseCommand(command string) (tag, body string) {
	command = strings.TrimPrefix(strings.TrimSpace(command), "?")
	if i := strings.IndexAny(command, "=;"); i >= 0 {
		tag = command[:i]
		if command[i] == '=' {
			body = strings.TrimSuffix(command[i+1:], ";")
		}
		return tag, body
	}
	return command, ""
}

func errorReply(message string) string {
	body, err := protocol.Marshal(&protocol.Error{Message: message})
	if err != nil {
		return `{"class":"ERROR","message":"internal"}`
	}
	return string(body)
}
