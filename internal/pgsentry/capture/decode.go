// Package capture decodes transaction capture records. A capture file is
// NDJSON: one completed, parser-reconstructed transaction per line, with
// the flow 5-tuple and capture timestamp alongside the classified
// request/response message groups.
package capture

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"

	"github.com/lucaderi/pgsentry/internal/pgsentry/pgwire"
)

var json = jsoniter.ConfigFastest

// ErrSkipLine indicates the line is not a usable capture record but
// processing should continue with the next one.
var ErrSkipLine = errors.New("skip line")

// Record is one decoded capture line: flow metadata plus the transaction.
type Record struct {
	Timestamp string // RFC3339Nano UTC, empty when the capture had none
	SrcIP     string
	SrcPort   int
	DestIP    string
	DestPort  int
	Tx        *pgwire.Tx
}

// rawRecord mirrors the capture file layout.
type rawRecord struct {
	Timestamp string       `json:"timestamp"`
	SrcIP     string       `json:"src_ip"`
	SrcPort   int          `json:"src_port"`
	DestIP    string       `json:"dest_ip"`
	DestPort  int          `json:"dest_port"`
	TxID      uint64       `json:"tx_id"`
	Request   *rawMessage  `json:"request"`
	Responses []rawMessage `json:"responses"`
}

// rawMessage is the union of all per-kind fields; Type selects which of
// them are meaningful.
type rawMessage struct {
	Type string `json:"type"`

	Query      string `json:"query,omitempty"`
	Statement  string `json:"statement,omitempty"`
	ParamCount int    `json:"param_count,omitempty"`

	ProtocolMajor uint16            `json:"protocol_major,omitempty"`
	ProtocolMinor uint16            `json:"protocol_minor,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`

	Columns int    `json:"columns,omitempty"`
	Rows    *int64 `json:"rows,omitempty"`
	Tag     string `json:"tag,omitempty"`

	Code     string `json:"code,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`

	Mechanism string `json:"mechanism,omitempty"`
	Payload   string `json:"payload,omitempty"`

	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`

	Accepted bool   `json:"accepted,omitempty"`
	RawTag   string `json:"raw_tag,omitempty"`
}

// DecodeLine decodes one capture line into a Record. Blank lines and
// lines that are not capture records yield ErrSkipLine.
func DecodeLine(line string) (*Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrSkipLine
	}

	var raw rawRecord
	if err := json.UnmarshalFromString(line, &raw); err != nil {
		return nil, ErrSkipLine
	}
	if raw.Request == nil && len(raw.Responses) == 0 {
		return nil, ErrSkipLine
	}

	rec := &Record{
		Timestamp: normalizeTimestamp(raw.Timestamp),
		SrcIP:     raw.SrcIP,
		SrcPort:   raw.SrcPort,
		DestIP:    raw.DestIP,
		DestPort:  raw.DestPort,
		Tx:        &pgwire.Tx{ID: raw.TxID},
	}

	if raw.Request != nil {
		rec.Tx.Req = decodeMessage(*raw.Request)
	}
	for _, m := range raw.Responses {
		rec.Tx.Resp = append(rec.Tx.Resp, decodeMessage(m))
	}
	return rec, nil
}

// decodeMessage maps one raw message onto its pgwire variant. Types this
// decoder does not know become Unknown, never an error.
func decodeMessage(m rawMessage) pgwire.Message {
	switch m.Type {
	case "startup":
		params := make(map[string]pgwire.Field, len(m.Parameters))
		for k, v := range m.Parameters {
			params[k] = wireField(v)
		}
		return pgwire.Startup{
			ProtocolMajor: m.ProtocolMajor,
			ProtocolMinor: m.ProtocolMinor,
			Parameters:    params,
		}
	case "query":
		return pgwire.Query{Text: wireField(m.Query)}
	case "extended_query":
		return pgwire.ExtendedQuery{
			Statement:  wireField(m.Statement),
			ParamCount: m.ParamCount,
		}
	case "result_set":
		var rows int64
		if m.Rows != nil {
			rows = *m.Rows
		}
		return pgwire.ResultSet{Columns: m.Columns, Rows: rows}
	case "command_complete":
		cc := pgwire.CommandComplete{Tag: wireField(m.Tag)}
		if m.Rows != nil {
			cc.Rows, cc.HasRows = *m.Rows, true
		} else if rows, ok := pgwire.ParseCommandTag(m.Tag); ok {
			cc.Rows, cc.HasRows = rows, true
		}
		return cc
	case "error":
		return pgwire.ErrorResponse{
			Code:     wireField(m.Code),
			Severity: wireField(m.Severity),
			Message:  wireField(m.Message),
		}
	case "notice":
		return pgwire.NoticeResponse{
			Code:     wireField(m.Code),
			Severity: wireField(m.Severity),
			Message:  wireField(m.Message),
		}
	case "authentication":
		return pgwire.Authentication{
			Mechanism: m.Mechanism,
			Payload:   []byte(m.Payload),
		}
	case "parameter_status":
		return pgwire.ParameterStatus{
			Name:  wireField(m.Name),
			Value: wireField(m.Value),
		}
	case "tls_request":
		return pgwire.TLSRequest{Accepted: m.Accepted}
	case "termination":
		return pgwire.Termination{}
	default:
		var tag byte
		if m.RawTag != "" {
			tag = m.RawTag[0]
		}
		return pgwire.Unknown{Tag: tag}
	}
}

// wireField classifies captured text as display-safe or binary. Empty
// text is treated as absent: the wire protocol has no empty optional
// fields, only missing ones.
func wireField(s string) pgwire.Field {
	if s == "" {
		return pgwire.Field{}
	}
	if displaySafe(s) {
		return pgwire.Text(s)
	}
	return pgwire.Binary([]byte(s))
}

// displaySafe reports whether s is valid UTF-8 free of control
// characters other than plain whitespace.
func displaySafe(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
		if r == 0x7f {
			return false
		}
	}
	return true
}

// normalizeTimestamp parses any plausible capture timestamp and returns
// the canonical RFC3339Nano UTC form, or empty when it cannot be parsed.
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
