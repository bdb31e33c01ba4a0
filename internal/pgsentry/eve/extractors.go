package eve

import (
	"strconv"

	"github.com/lucaderi/pgsentry/internal/pgsentry/jsonbuilder"
	"github.com/lucaderi/pgsentry/internal/pgsentry/pgwire"
)

// Extractors pull semantic fields out of one message group and write them
// into the current object scope. They follow three rules throughout:
// absent source fields produce absent keys (never null or ""), oversized
// text is truncated with an explicit marker, and credential or raw row
// material is never emitted.

// setField writes a wire field under key when it is present, truncating
// at limit when limit > 0. Binary fields are hex-encoded by Display. The
// return value reports whether truncation happened; each scope carries
// at most one truncated flag, so the caller aggregates and marks.
func setField(js *jsonbuilder.Builder, key string, f pgwire.Field, limit int) bool {
	if !f.Present() {
		return false
	}
	text := f.Display()
	if limit > 0 && len(text) > limit {
		js.SetString(key, text[:limit])
		return true
	}
	js.SetString(key, text)
	return false
}

// markTruncated writes the scope's truncation flag.
func markTruncated(js *jsonbuilder.Builder, truncated bool) {
	if truncated {
		js.SetBool("truncated", true)
	}
}

func extractStartup(js *jsonbuilder.Builder, m pgwire.Startup, opts Options) {
	js.SetString("protocol_version", formatProtocolVersion(m.ProtocolMajor, m.ProtocolMinor))
	// Only the identity-relevant startup parameters are surfaced.
	truncated := setField(js, "user", m.Parameters["user"], opts.QueryTextCap)
	truncated = setField(js, "database", m.Parameters["database"], opts.QueryTextCap) || truncated
	truncated = setField(js, "application_name", m.Parameters["application_name"], opts.QueryTextCap) || truncated
	markTruncated(js, truncated)
}

func extractQuery(js *jsonbuilder.Builder, m pgwire.Query, opts Options) {
	markTruncated(js, setField(js, "query", m.Text, opts.QueryTextCap))
}

func extractExtendedQuery(js *jsonbuilder.Builder, m pgwire.ExtendedQuery, opts Options) {
	markTruncated(js, setField(js, "statement", m.Statement, opts.QueryTextCap))
	if m.ParamCount > 0 {
		js.SetInt("parameters", int64(m.ParamCount))
	}
}

func extractResultSet(js *jsonbuilder.Builder, m pgwire.ResultSet) {
	// Aggregates only; row contents stay out of the record.
	js.SetInt("columns", int64(m.Columns))
	js.SetInt("rows", m.Rows)
}

func extractCommandComplete(js *jsonbuilder.Builder, m pgwire.CommandComplete, opts Options) {
	truncated := setField(js, "command", m.Tag, opts.QueryTextCap)
	if m.HasRows {
		js.SetInt("rows", m.Rows)
	}
	markTruncated(js, truncated)
}

// extractErrorFields covers ErrorResponse and NoticeResponse, which share
// a field layout. The protocol allows partial records, so each field is
// written only when it arrived on the wire.
func extractErrorFields(js *jsonbuilder.Builder, code, severity, message pgwire.Field, opts Options) {
	truncated := setField(js, "code", code, opts.QueryTextCap)
	truncated = setField(js, "severity", severity, opts.QueryTextCap) || truncated
	truncated = setField(js, "message", message, opts.QueryTextCap) || truncated
	markTruncated(js, truncated)
}

func extractAuthentication(js *jsonbuilder.Builder, m pgwire.Authentication) {
	// Mechanism only. The captured payload may hold credential material
	// and must never reach the record.
	if m.Mechanism != "" {
		js.SetString("mechanism", m.Mechanism)
	}
}

func extractParameterStatus(js *jsonbuilder.Builder, m pgwire.ParameterStatus, opts Options) {
	truncated := setField(js, "name", m.Name, opts.QueryTextCap)
	truncated = setField(js, "value", m.Value, opts.QueryTextCap) || truncated
	markTruncated(js, truncated)
}

func extractTLSRequest(js *jsonbuilder.Builder, m pgwire.TLSRequest) {
	if m.Accepted {
		js.SetBool("accepted", true)
	}
}

// extractMessage dispatches on the message variant. Unknown (and any
// variant added to the parser before this table learns about it) is a
// defined no-op.
func extractMessage(js *jsonbuilder.Builder, msg pgwire.Message, opts Options) {
	switch m := msg.(type) {
	case pgwire.Startup:
		extractStartup(js, m, opts)
	case pgwire.Query:
		extractQuery(js, m, opts)
	case pgwire.ExtendedQuery:
		extractExtendedQuery(js, m, opts)
	case pgwire.ResultSet:
		extractResultSet(js, m)
	case pgwire.CommandComplete:
		extractCommandComplete(js, m, opts)
	case pgwire.ErrorResponse:
		extractErrorFields(js, m.Code, m.Severity, m.Message, opts)
	case pgwire.NoticeResponse:
		extractErrorFields(js, m.Code, m.Severity, m.Message, opts)
	case pgwire.Authentication:
		extractAuthentication(js, m)
	case pgwire.ParameterStatus:
		extractParameterStatus(js, m, opts)
	case pgwire.TLSRequest:
		extractTLSRequest(js, m)
	case pgwire.Termination:
		// kind tag is all there is to say
	}
}

func formatProtocolVersion(major, minor uint16) string {
	return strconv.Itoa(int(major)) + "." + strconv.Itoa(int(minor))
}
