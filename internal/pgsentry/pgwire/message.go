package pgwire

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Kind classifies a single protocol message group within a transaction.
type Kind int

const (
	KindUnknown Kind = iota
	KindStartup
	KindQuery
	KindExtendedQuery
	KindResultSet
	KindCommandComplete
	KindError
	KindNotice
	KindAuthentication
	KindParameterStatus
	KindTLSRequest
	KindTermination
)

// kindTags are the stable external names used in emitted records.
var kindTags = map[Kind]string{
	KindUnknown:         "unknown",
	KindStartup:         "startup",
	KindQuery:           "query",
	KindExtendedQuery:   "extended_query",
	KindResultSet:       "result_set",
	KindCommandComplete: "command_complete",
	KindError:           "error",
	KindNotice:          "notice",
	KindAuthentication:  "authentication",
	KindParameterStatus: "parameter_status",
	KindTLSRequest:      "tls_request",
	KindTermination:     "termination",
}

func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "unknown"
}

// Frontend and backend message tag bytes, per the FEBE protocol.
// Tags are ambiguous across directions ('E' is Execute from the client
// and ErrorResponse from the server), so they are split by origin.
const (
	TagQuery     byte = 'Q'
	TagParse     byte = 'P'
	TagBind      byte = 'B'
	TagExecute   byte = 'E'
	TagPassword  byte = 'p'
	TagTerminate byte = 'X'

	TagAuthentication  byte = 'R'
	TagRowDescription  byte = 'T'
	TagDataRow         byte = 'D'
	TagCommandComplete byte = 'C'
	TagErrorResponse   byte = 'E'
	TagNoticeResponse  byte = 'N'
	TagParameterStatus byte = 'S'
	TagReadyForQuery   byte = 'Z'
)

// SSLRequestCode is the pseudo protocol version carried by an SSLRequest
// startup packet.
const SSLRequestCode uint32 = 80877103

// Field is one textual field captured off the wire. A field is either
// absent, present and verified display-safe by the parser, or present
// but binary/unvalidated. Binary fields must never be embedded raw in
// output; Display hex-encodes them.
type Field struct {
	value   string
	present bool
	safe    bool
}

// Text returns a present, display-safe field.
func Text(s string) Field {
	return Field{value: s, present: true, safe: true}
}

// Binary returns a present field whose bytes were not validated as
// display-safe.
func Binary(b []byte) Field {
	return Field{value: string(b), present: true}
}

// Present reports whether the field was seen on the wire. The zero
// Field is absent.
func (f Field) Present() bool { return f.present }

// Safe reports whether the field may be embedded in output as-is.
func (f Field) Safe() bool { return f.present && f.safe }

// Display returns a representation safe to place in a text document:
// the value itself when validated, a hex encoding otherwise.
func (f Field) Display() string {
	if !f.present {
		return ""
	}
	if f.safe {
		return f.value
	}
	return hex.EncodeToString([]byte(f.value))
}

// Message is one classified protocol message group. It is a closed set:
// every variant lives in this package, so consumers can switch over the
// concrete types and treat anything else as Unknown.
type Message interface {
	Kind() Kind
	message()
}

// Startup carries the client's startup packet: protocol version plus the
// key/value parameter list (user, database, application_name, ...).
type Startup struct {
	ProtocolMajor uint16
	ProtocolMinor uint16
	Parameters    map[string]Field
}

// Query is a simple-protocol statement ('Q').
type Query struct {
	Text Field
}

// ExtendedQuery aggregates one Parse/Bind/Execute group of the extended
// protocol. Only the prepared statement text and the bound parameter
// count are retained; bound values are deliberately not modeled.
type ExtendedQuery struct {
	Statement  Field
	ParamCount int
}

// ResultSet aggregates one RowDescription plus its DataRow stream.
// Row contents are never retained, only the counts.
type ResultSet struct {
	Columns int
	Rows    int64
}

// CommandComplete is the server's completion tag ('C').
type CommandComplete struct {
	Tag     Field
	Rows    int64
	HasRows bool
}

// ErrorResponse is a server error ('E'). The protocol allows any subset
// of the fields to be present.
type ErrorResponse struct {
	Code     Field
	Severity Field
	Message  Field
}

// NoticeResponse is a server notice ('N'), same field layout as an error.
type NoticeResponse struct {
	Code     Field
	Severity Field
	Message  Field
}

// Authentication is an authentication exchange. Mechanism names the
// negotiated method (cleartext-password, md5, scram-sha-256, ...).
// Payload holds whatever credential material the parser captured; it
// exists so the parser can keep its view complete, and no consumer in
// this repository ever serializes it.
type Authentication struct {
	Mechanism string
	Payload   []byte
}

// ParameterStatus is a server run-time parameter report ('S').
type ParameterStatus struct {
	Name  Field
	Value Field
}

// TLSRequest is the SSLRequest pseudo-startup packet.
type TLSRequest struct {
	Accepted bool
}

// Termination is the client's Terminate message ('X').
type Termination struct{}

// Unknown is any message group the parser could not classify. Tag holds
// the raw tag byte when one was seen.
type Unknown struct {
	Tag byte
}

func (Startup) Kind() Kind         { return KindStartup }
func (Query) Kind() Kind           { return KindQuery }
func (ExtendedQuery) Kind() Kind   { return KindExtendedQuery }
func (ResultSet) Kind() Kind       { return KindResultSet }
func (CommandComplete) Kind() Kind { return KindCommandComplete }
func (ErrorResponse) Kind() Kind   { return KindError }
func (NoticeResponse) Kind() Kind  { return KindNotice }
func (Authentication) Kind() Kind  { return KindAuthentication }
func (ParameterStatus) Kind() Kind { return KindParameterStatus }
func (TLSRequest) Kind() Kind      { return KindTLSRequest }
func (Termination) Kind() Kind     { return KindTermination }
func (Unknown) Kind() Kind         { return KindUnknown }

func (Startup) message()         {}
func (Query) message()           {}
func (ExtendedQuery) message()   {}
func (ResultSet) message()       {}
func (CommandComplete) message() {}
func (ErrorResponse) message()   {}
func (NoticeResponse) message()  {}
func (Authentication) message()  {}
func (ParameterStatus) message() {}
func (TLSRequest) message()      {}
func (Termination) message()     {}
func (Unknown) message()         {}

// ParseCommandTag extracts the affected-row count from a CommandComplete
// tag string. Tags look like "SELECT 1", "INSERT 0 3", "UPDATE 17"; the
// row count is the last space-separated token when it is numeric.
func ParseCommandTag(tag string) (rows int64, ok bool) {
	fields := strings.Fields(tag)
	if len(fields) < 2 {
		return 0, false
	}
	n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
