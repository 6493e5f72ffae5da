package stream

import "encoding/json"

// DefaultMaxCarry bounds the unfinished object kept between frames when
// carry-over is enabled.
const DefaultMaxCarry = 1 << 20

// Options tune a Reassembler.
type Options struct {
	// CarryPartial keeps an object left unfinished at the end of one data
	// frame and prepends it to the next frame's payload. When false, such
	// a tail is dropped, which loses an object the runtime splits across
	// two frames.
	CarryPartial bool
	// MaxCarry caps the carried tail in bytes; a larger tail is dropped.
	// Zero means DefaultMaxCarry.
	MaxCarry int
}

// Reassembler turns raw SSE bytes into agent events. It is not safe for
// concurrent use; a stream has exactly one reader.
type Reassembler struct {
	opts  Options
	lines LineBuffer
	carry string
}

// NewReassembler creates a reassembler.
func NewReassembler(opts Options) *Reassembler {
	if opts.MaxCarry <= 0 {
		opts.MaxCarry = DefaultMaxCarry
	}
	return &Reassembler{opts: opts}
}

// Feed consumes the next read from the transport and calls emit for every
// event it completes, in stream order.
func (r *Reassembler) Feed(p []byte, emit func(Event)) {
	for _, line := range r.lines.Write(p) {
		payload, ok := FramePayload(line)
		if !ok {
			continue
		}
		r.FeedPayload(payload, emit)
	}
}

// FeedPayload processes one frame payload, the text after `data: `.
func (r *Reassembler) FeedPayload(payload string, emit func(Event)) {
	text := NormalizePayload(payload)
	if r.opts.CarryPartial && r.carry != "" {
		text = r.carry + text
		r.carry = ""
	}

	tail := ScanObjects(text, func(raw json.RawMessage) {
		ev, err := Decode(raw)
		if err != nil {
			return
		}
		emit(ev)
	})

	if r.opts.CarryPartial && tail != "" && len(tail) <= r.opts.MaxCarry {
		r.carry = tail
	}
}

// Carried returns the unfinished object held for the next frame.
func (r *Reassembler) Carried() string {
	return r.carry
}

// Reset discards buffered line and object state.
func (r *Reassembler) Reset() {
	r.lines.Reset()
	r.carry = ""
}
