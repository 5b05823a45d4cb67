package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Header guard findings
	GuardInfo                Code = 1000
	GuardNonConformingName   Code = 1001
	GuardMissingEndifComment Code = 1002
	GuardMissing             Code = 1003
	GuardNonTopmost          Code = 1004

	// Preprocessing (advisory, never fatal)
	PPInfo                    Code = 2000
	PPIncludeNotFound         Code = 2001
	PPUnterminatedConditional Code = 2002
	PPStrayEndif              Code = 2003
	PPStrayElse               Code = 2004
	PPIncludeDepthExceeded    Code = 2005

	// I/O
	IOLoadFileError Code = 4000
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	GuardInfo:                "header guard information",
	GuardNonConformingName:   "header guard does not follow preferred style",
	GuardMissingEndifComment: "#endif for a header guard should reference the guard macro in a comment",
	GuardMissing:             "header is missing header guard",
	GuardNonTopmost:          "header guard after code/includes, consider moving it up",

	PPInfo:                    "preprocessing information",
	PPIncludeNotFound:         "included file could not be resolved",
	PPUnterminatedConditional: "conditional directive is never terminated",
	PPStrayEndif:              "#endif without matching conditional",
	PPStrayElse:               "#else/#elif without matching conditional",
	PPIncludeDepthExceeded:    "include nesting too deep",

	IOLoadFileError: "I/O load file error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("GRD%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
