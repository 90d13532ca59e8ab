package protocol

// Code is a protocol error reason.
type Code int

const (
	MalformedRequest Code = iota
	MalformedID
	MalformedType
	UnknownType
	UnknownID
	NotFound
	EmptyRequest
	CommandNotFound
	TypeNotFound
	MissingBody
	MissingTitle
	ItemExists
	LinkExists
	UnknownRequest
	InvalidBookName
	BookExists
	BookNotFound
	BookCreateFailed
	BookLoadFailed
	BookDeleteFailed
	Unauthorized
	ActiveBook

	numCodes
)

var codeNames = [numCodes]string{
	MalformedRequest: "MALFORMED-REQUEST",
	MalformedID:      "MALFORMED-ID",
	MalformedType:    "MALFORMED-TYPE",
	UnknownType:      "UNKNOWN-TYPE",
	UnknownID:        "UNKNOWN-ID",
	NotFound:         "NOT-FOUND",
	EmptyRequest:     "EMPTY-REQUEST",
	CommandNotFound:  "COMMAND-NOT-FOUND",
	TypeNotFound:     "TYPE-NOT-FOUND",
	MissingBody:      "MISSING-BODY",
	MissingTitle:     "MISSING-TITLE",
	ItemExists:       "ITEM-EXISTS",
	LinkExists:       "LINK-EXISTS",
	UnknownRequest:   "UNKNOWN-REQUEST",
	InvalidBookName:  "INVALID-BOOK-NAME",
	BookExists:       "BOOK-EXISTS",
	BookNotFound:     "BOOK-NOT-FOUND",
	BookCreateFailed: "BOOK-CREATE-FAILED",
	BookLoadFailed:   "BOOK-LOAD-FAILED",
	BookDeleteFailed: "BOOK-DELETE-FAILED",
	Unauthorized:     "UNAUTHORIZED",
	ActiveBook:       "ACTIVE-BOOK",
}

// String returns the wire reason string of c.
func (c Code) String() string {
	if c < 0 || c >= numCodes {
		return codeNames[UnknownRequest]
	}
	return codeNames[c]
}

// Header is the first line of a successful block response.
type Header string

const (
	HeaderOK      Header = "OK"
	HeaderContext Header = "OK CONTEXT"
	HeaderOutline Header = "OK OUTLINE"
)

// EndSentinel terminates every block response.
const EndSentinel = ".END"
