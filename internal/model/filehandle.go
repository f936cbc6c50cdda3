package model

// FileHandle wraps exactly one local file selected for upload, plus the
// metadata used for deduplication. Two handles are equivalent iff Name,
// Size and LastModified all match.
type FileHandle struct {
	Name         string
	Path         string
	Size         int64
	LastModified int64 // epoch milliseconds
}

// Equivalent reports whether two handles refer to the same physical file
// according to the three-field metadata key.
func (h FileHandle) Equivalent(other FileHandle) bool {
	return h.Name == other.Name &&
		h.Size == other.Size &&
		h.LastModified == other.LastModified
}

// IsZero reports whether the handle is unset.
func (h FileHandle) IsZero() bool {
	return h == FileHandle{}
}

// Input is the tagged union produced by upstream file pickers: either a
// raw handle or a handle wrapped in a widget envelope. The normalizer
// collapses it into a plain FileHandle; no other component inspects the tag.
type Input struct {
	Raw     *FileHandle
	Wrapped *Envelope
}

// Envelope is the wrapper shape some upload widgets hand back, carrying
// the real handle under OriginFile.
type Envelope struct {
	UID        string
	OriginFile FileHandle
}

// RawInput builds an Input from a bare handle.
func RawInput(h FileHandle) Input {
	return Input{Raw: &h}
}

// WrappedInput builds an Input from an envelope.
func WrappedInput(e Envelope) Input {
	return Input{Wrapped: &e}
}
