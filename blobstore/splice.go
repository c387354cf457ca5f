package blobstore

import "io"

// Splice returns cur with p written at off.
//
// An off of AppendOffset appends p. Writing past the end of cur zero-fills
// the gap. cur may be modified in place; callers must use the result.
func Splice(cur, p []byte, off int64) []byte {
	if off == AppendOffset {
		return append(cur, p...)
	}

	end := off + int64(len(p))
	if end > int64(len(cur)) {
		if end <= int64(cap(cur)) {
			old := len(cur)
			cur = cur[:end]
			clear(cur[old:])
		} else {
			grown := make([]byte, end)
			copy(grown, cur)
			cur = grown
		}
	}
	copy(cur[off:], p)
	return cur
}

// resize returns cur truncated or zero-extended to size.
func resize(cur []byte, size int64) []byte {
	if size <= int64(len(cur)) {
		return cur[:size]
	}
	grown := make([]byte, size)
	copy(grown, cur)
	return grown
}

// readAt copies from data at off into p with io.ReaderAt semantics.
func readAt(data, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ValidateOffset rejects negative write offsets other than AppendOffset.
func ValidateOffset(off int64) error {
	if off < 0 && off != AppendOffset {
		return ErrInvalidOffset
	}
	return nil
}
