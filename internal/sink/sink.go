// Package sink implements the two output formats: a raw
// binary image and an Intel-HEX text file. Both buffer assembled bytes
// and flush them in fixed-size chunks, and both treat SetAddr specially:
// a contiguous address advance just keeps buffering, while a jump (an
// ORG, OFFSET or .PHASE) flushes the pending buffer first.
package sink

// Sink is the common output-file interface the driver writes assembled
// bytes through, independent of format.
type Sink interface {
	// SetAddr moves the output cursor to addr. init controls whether a
	// sink with no prior address yet (the very first ORG) actually opens
	// at this address, letting a sink stay dormant until code is placed.
	SetAddr(addr int64, init bool) error
	// Data appends assembled bytes at the current cursor and advances it.
	Data(b []byte) error
	// Close flushes any buffered bytes and finalizes the file. entry is
	// the program's entry point, used by the Intel-HEX end-of-file
	// record; binary sinks ignore it.
	Close(entry int64) error
}

var hexDigits = "0123456789ABCDEF"

func appendHexByte(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0xF])
}
