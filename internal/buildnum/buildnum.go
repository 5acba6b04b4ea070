// Package buildnum implements a build-number persistence file: a 4-byte
// little-endian counter at "<basename>-build", incremented on each
// successful assembly when --number-build is set. It is a tiny
// standalone package, independent of internal/pipeline's own state.
package buildnum

import (
	"encoding/binary"
	"os"
)

// Path returns the build-number file path for a given output basename.
func Path(basename string) string { return basename + "-build" }

// Read returns the current counter value for basename, or 0 if the file
// does not exist yet.
func Read(basename string) (uint32, error) {
	b, err := os.ReadFile(Path(basename))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if len(b) < 4 {
		return 0, nil
	}
	return binary.LittleEndian.Uint32(b[:4]), nil
}

// Increment reads the current counter for basename, adds one, writes it
// back, and returns the new value. Called only after a successful
// (error-free, both passes clean) assembly.
func Increment(basename string) (uint32, error) {
	n, err := Read(basename)
	if err != nil {
		return 0, err
	}
	n++
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	if err := os.WriteFile(Path(basename), b[:], 0o644); err != nil {
		return 0, err
	}
	return n, nil
}
