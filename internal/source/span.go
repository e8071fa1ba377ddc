package source

import "fmt"

// FileID identifies a file inside a FileSet.
type FileID uint32

// NoFileID marks the absence of a file.
const NoFileID FileID = 0

// Span is a half-open byte range inside a file. The IR stores spans as
// opaque location handles; a zero Span marks compiler-generated code.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Synthesized returns the location handle for compiler-generated code that
// has no source counterpart.
func Synthesized() Span {
	return Span{}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	if s == (Span{}) {
		return "<synthesized>"
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends the span to include other. Spans from different files are
// left untouched.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
