package stream

import "bytes"

// crlf is the frame terminator of the Exchange Stream protocol. Every message,
// inbound and outbound, is a UTF-8 JSON object followed by these two bytes.
var crlf = []byte{'\r', '\n'}

// frameDecoder splits a raw byte stream into CRLF-delimited frames.
//
// It is stateful: bytes after the last terminator (including a lone CR that
// may be the first half of a split terminator) are retained and prepended to
// the next Feed call. A decoder never outlives its connection — reconnects
// allocate a fresh one, so a partial frame from a dead connection is dropped.
type frameDecoder struct {
	buf []byte
}

func newFrameDecoder() *frameDecoder {
	return &frameDecoder{}
}

// Feed ingests a chunk and returns the complete frames it closed, in order.
// A chunk with no terminator returns nil and only grows the retained buffer.
func (d *frameDecoder) Feed(p []byte) [][]byte {
	d.buf = append(d.buf, p...)

	var frames [][]byte
	for {
		i := bytes.Index(d.buf, crlf)
		if i < 0 {
			break
		}
		frame := make([]byte, i)
		copy(frame, d.buf[:i])
		frames = append(frames, frame)
		d.buf = d.buf[i+len(crlf):]
	}
	return frames
}

// Pending returns how many bytes are waiting for a terminator.
func (d *frameDecoder) Pending() int {
	return len(d.buf)
}
