package sink

import "io"

// defaultFill is the conventional zero pad byte. Binary pads address
// gaps with the fill byte given to NewBinary or SetFill, not with this
// constant.
const defaultFill = 0x00

// chunkSize is the buffered write size before Data flushes to the
// underlying writer.
const chunkSize = 256

// Binary writes a flat memory image: bytes land at file offset
// (address - base), where base is the address of the first byte ever
// written. A forward jump pads the gap with Fill; a backward or
// disjoint jump seeks without padding.
type Binary struct {
	w    io.WriteSeeker
	fill byte

	haveBase bool
	base     int64
	addr     int64
	maxAddr  int64
	data     []byte
}

// NewBinary creates a binary sink over w. fill is the pad byte used for
// forward address gaps; callers may change it later with SetFill.
func NewBinary(w io.WriteSeeker, fill byte) *Binary {
	return &Binary{w: w, fill: fill}
}

func (b *Binary) SetFill(fill byte) { b.fill = fill }

func (b *Binary) flush() error {
	if b.haveBase && len(b.data) > 0 {
		if _, err := b.w.Write(b.data); err != nil {
			return err
		}
		b.data = b.data[:0]
	}
	return nil
}

func (b *Binary) SetAddr(addr int64, init bool) error {
	switch {
	case !b.haveBase:
		if init {
			b.haveBase = true
			b.base = addr
			b.addr = addr
			b.maxAddr = addr
		}
		return nil

	case addr > b.maxAddr:
		if err := b.flush(); err != nil {
			return err
		}
		if b.addr < b.maxAddr {
			if _, err := b.w.Seek(b.maxAddr-b.base, io.SeekStart); err != nil {
				return err
			}
		}
		gap := addr - b.maxAddr
		pad := make([]byte, gap)
		for i := range pad {
			pad[i] = b.fill
		}
		if _, err := b.w.Write(pad); err != nil {
			return err
		}
		b.addr = addr
		b.maxAddr = addr
		return nil

	case addr != b.addr:
		if err := b.flush(); err != nil {
			return err
		}
		if _, err := b.w.Seek(addr-b.base, io.SeekStart); err != nil {
			return err
		}
		b.addr = addr
		return nil
	}
	return nil
}

func (b *Binary) Data(p []byte) error {
	if !b.haveBase {
		return nil
	}
	for _, by := range p {
		b.data = append(b.data, by)
		if len(b.data) >= chunkSize {
			if err := b.flush(); err != nil {
				return err
			}
		}
	}
	b.addr += int64(len(p))
	if b.addr > b.maxAddr {
		b.maxAddr = b.addr
	}
	return nil
}

func (b *Binary) Close(entry int64) error {
	return b.flush()
}

// HighWaterMark returns the highest address ever written to, for
// listing/summary output.
func (b *Binary) HighWaterMark() int64 { return b.maxAddr }
