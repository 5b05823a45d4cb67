package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) inside a single file.
// Spans double as location handles: they are totally ordered within a file
// and comparable, so they can key maps the way source locations do.
type Span struct {
	File  FileID
	Start uint32 // inclusive
	End   uint32 // exclusive
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// SameFile reports whether both spans point into the same file.
func (s Span) SameFile(other Span) bool {
	return s.File == other.File
}

// Before reports whether s starts before other; spans in different files
// order by FileID, which follows unit entry order.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	return s.Start < other.Start
}

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

// At returns a zero-length span pinned at off in file.
func At(file FileID, off uint32) Span {
	return Span{File: file, Start: off, End: off}
}
