package client

import (
	"bytes"
	"regexp"
)

// lineSeparator splits a chunk into lines; runs of mixed terminators count as
// one separator, so blank lines vanish.
var lineSeparator = regexp.MustCompile(`(\r\n|\r|\n)+`)

// maxPendingBytes caps an unterminated line. gpsd's longest objects (SKY
// with many satellites, POLL) stay well below this.
const maxPendingBytes = 1 << 20

// framer turns TCP reads into line-complete chunks by holding back the
// trailing partial line until its terminator arrives.
type framer struct {
	pending []byte
	limit   int
}

func newFramer(limit int) *framer {
	return &framer{limit: limit}
}

// push appends data and returns everything up to and including the last line
// terminator, or nil when no line is complete yet. dropped is the number of
// bytes discarded because an unterminated line grew past the limit.
func (f *framer) push(data []byte) (chunk []byte, dropped int) {
	f.pending = append(f.pending, data...)

	if i := bytes.LastIndexAny(f.pending, "\r\n"); i >= 0 {
		chunk = append([]byte(nil), f.pending[:i+1]...)
		f.pending = append(f.pending[:0], f.pending[i+1:]...)
	}

	if len(f.pending) > f.limit {
		dropped = len(f.pending)
		f.pending = f.pending[:0]
	}
	return chunk, dropped
}

// buffered reports the length of the held-back partial line.
func (f *framer) buffered() int {
	return len(f.pending)
}

// splitLines splits a line-complete chunk on any run of CR/LF terminators and
// drops empty lines.
func splitLines(chunk []byte) [][]byte {
	parts := lineSeparator.Split(string(chunk), -1)
	lines := make([][]byte, 0, len(parts))
	for _, p := range parts {
		if len(bytes.TrimSpace([]byte(p))) == 0 {
			continue
		}
		lines = append(lines, []byte(p))
	}
	return lines
}
