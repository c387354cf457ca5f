package blobio

import "fmt"

// Mode selects the capabilities of a Stream. The numeric values match the
// classic stdio mode strings in the order r, r+, w, w+, a, a+.
type Mode int

const (
	ModeRead         Mode = iota // "r"
	ModeReadUpdate               // "r+"
	ModeWrite                    // "w"
	ModeWriteUpdate              // "w+"
	ModeAppend                   // "a"
	ModeAppendUpdate             // "a+"
)

var modeNames = [...]string{"r", "r+", "w", "w+", "a", "a+"}

// ParseMode maps a stdio mode string to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the six defined modes.
func (m Mode) Valid() bool {
	_, ok := resolveMode(m)
	return ok
}

// truncates reports whether opening in m discards existing content.
func (m Mode) truncates() bool {
	return m == ModeWrite || m == ModeWriteUpdate
}

// flags is the state bit set of a Stream.
type flags uint8

const (
	flagRead    flags = 1 << iota // readable
	flagWrite                     // writable
	flagAppend                    // writes go to the end of the blob
	flagEOF                       // sticky end of stream
	flagErr                       // sticky error
	flagExtBuf                    // buffer owned by the caller
	flagPending                   // window holds unflushed writes

	capabilityMask = flagRead | flagWrite | flagAppend
)

// resolveMode returns the capability set of m.
func resolveMode(m Mode) (flags, bool) {
	switch m {
	case ModeRead:
		return flagRead, true
	case ModeReadUpdate, ModeWriteUpdate:
		return flagRead | flagWrite, true
	case ModeWrite:
		return flagWrite, true
	case ModeAppend, ModeAppendUpdate:
		return flagRead | flagWrite | flagAppend, true
	default:
		return 0, false
	}
}
