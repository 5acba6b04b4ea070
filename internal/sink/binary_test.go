package sink

import (
	"bytes"
	"testing"
)

type seekBuf struct {
	bytes.Buffer
	pos int64
}

func (s *seekBuf) Write(p []byte) (int, error) {
	// Overwrite-in-place semantics matching os.File.Write at an
	// arbitrary seek position.
	end := s.pos + int64(len(p))
	if end > int64(s.Len()) {
		grown := make([]byte, end)
		copy(grown, s.Bytes())
		s.Buffer = *bytes.NewBuffer(grown)
	}
	b := s.Bytes()
	copy(b[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuf) Seek(offset int64, whence int) (int64, error) {
	s.pos = offset
	return s.pos, nil
}

func TestBinaryContiguous(t *testing.T) {
	var buf seekBuf
	s := NewBinary(&buf, 0xFF)
	if err := s.SetAddr(0x1000, true); err != nil {
		t.Fatal(err)
	}
	if err := s.Data([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(0x1000); err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()
	want := []byte{0x01, 0x02, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestBinaryForwardGapFills(t *testing.T) {
	var buf seekBuf
	s := NewBinary(&buf, 0xAA)
	s.SetAddr(0x1000, true)
	s.Data([]byte{0x01})
	s.SetAddr(0x1004, true)
	s.Data([]byte{0x02})
	s.Close(0x1000)

	want := []byte{0x01, 0xAA, 0xAA, 0xAA, 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % X, want % X", buf.Bytes(), want)
	}
}

func TestBinaryBackwardSeekNoFill(t *testing.T) {
	var buf seekBuf
	s := NewBinary(&buf, 0xAA)
	s.SetAddr(0x1000, true)
	s.Data([]byte{0x01, 0x02, 0x03})
	s.SetAddr(0x1001, true) // patch seek back into already-written region
	s.Data([]byte{0x99})
	s.Close(0x1000)

	want := []byte{0x01, 0x99, 0x03}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % X, want % X", buf.Bytes(), want)
	}
}

func TestBinaryHighWaterMark(t *testing.T) {
	var buf seekBuf
	s := NewBinary(&buf, 0)
	s.SetAddr(0x2000, true)
	s.Data(make([]byte, 10))
	if hw := s.HighWaterMark(); hw != 0x200A {
		t.Errorf("high water mark = %#x, want %#x", hw, 0x200A)
	}
}
