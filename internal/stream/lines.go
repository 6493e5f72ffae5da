// Package stream reassembles agent events from the runtime's SSE byte
// stream and folds them into per-agent transcripts.
package stream

import (
	"bytes"
	"strings"
)

// dataPrefix marks an SSE data line. Other lines (comments, keep-alives,
// event names) carry nothing for us.
const dataPrefix = "data: "

// LineBuffer splits a byte stream into lines, holding the trailing
// incomplete line until the rest of it arrives. It works on bytes so a
// multi-byte UTF-8 sequence split across reads is reassembled intact.
type LineBuffer struct {
	partial []byte
}

// Write appends p and returns every line completed by it, without the
// terminating newline.
func (b *LineBuffer) Write(p []byte) []string {
	if len(p) == 0 {
		return nil
	}
	b.partial = append(b.partial, p...)

	var lines []string
	for {
		i := bytes.IndexByte(b.partial, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(b.partial[:i]))
		b.partial = b.partial[i+1:]
	}
	if len(b.partial) == 0 {
		b.partial = nil
	}
	return lines
}

// Pending returns the number of buffered bytes not yet terminated by a newline.
func (b *LineBuffer) Pending() int {
	return len(b.partial)
}

// Reset drops any buffered partial line.
func (b *LineBuffer) Reset() {
	b.partial = nil
}

// FramePayload extracts the payload of a `data: ` line. Blank payloads and
// non-data lines report false.
func FramePayload(line string) (string, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" {
		return "", false
	}
	return payload, true
}
