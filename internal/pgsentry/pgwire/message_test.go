package pgwire

import (
	"testing"
)

func TestField_States(t *testing.T) {
	var absent Field
	if absent.Present() {
		t.Errorf("zero Field should be absent")
	}
	if absent.Display() != "" {
		t.Errorf("absent Field Display = %q, want empty", absent.Display())
	}

	text := Text("SELECT 1")
	if !text.Present() || !text.Safe() {
		t.Errorf("Text field should be present and safe")
	}
	if text.Display() != "SELECT 1" {
		t.Errorf("Text Display = %q, want SELECT 1", text.Display())
	}

	bin := Binary([]byte{0x00, 0xff, 0x41})
	if !bin.Present() || bin.Safe() {
		t.Errorf("Binary field should be present and unsafe")
	}
	if bin.Display() != "00ff41" {
		t.Errorf("Binary Display = %q, want 00ff41", bin.Display())
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindStartup, "startup"},
		{KindQuery, "query"},
		{KindExtendedQuery, "extended_query"},
		{KindResultSet, "result_set"},
		{KindCommandComplete, "command_complete"},
		{KindError, "error"},
		{KindNotice, "notice"},
		{KindAuthentication, "authentication"},
		{KindParameterStatus, "parameter_status"},
		{KindTLSRequest, "tls_request"},
		{KindTermination, "termination"},
		{KindUnknown, "unknown"},
		{Kind(999), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestMessage_Kinds(t *testing.T) {
	tests := []struct {
		msg  Message
		want Kind
	}{
		{Startup{}, KindStartup},
		{Query{}, KindQuery},
		{ExtendedQuery{}, KindExtendedQuery},
		{ResultSet{}, KindResultSet},
		{CommandComplete{}, KindCommandComplete},
		{ErrorResponse{}, KindError},
		{NoticeResponse{}, KindNotice},
		{Authentication{}, KindAuthentication},
		{ParameterStatus{}, KindParameterStatus},
		{TLSRequest{}, KindTLSRequest},
		{Termination{}, KindTermination},
		{Unknown{}, KindUnknown},
	}
	for _, tt := range tests {
		if got := tt.msg.Kind(); got != tt.want {
			t.Errorf("%T.Kind() = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestParseCommandTag(t *testing.T) {
	tests := []struct {
		tag      string
		wantRows int64
		wantOK   bool
	}{
		{"SELECT 1", 1, true},
		{"SELECT 0", 0, true},
		{"INSERT 0 3", 3, true},
		{"UPDATE 17", 17, true},
		{"DELETE 2", 2, true},
		{"COPY 10000", 10000, true},
		{"BEGIN", 0, false},
		{"CREATE TABLE", 0, false},
		{"SELECT -1", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		rows, ok := ParseCommandTag(tt.tag)
		if ok != tt.wantOK || rows != tt.wantRows {
			t.Errorf("ParseCommandTag(%q) = (%d, %v), want (%d, %v)",
				tt.tag, rows, ok, tt.wantRows, tt.wantOK)
		}
	}
}

func TestTx_Sides(t *testing.T) {
	empty := &Tx{}
	if _, ok := empty.Request(); ok {
		t.Errorf("empty Tx should have no request")
	}
	if len(empty.Responses()) != 0 {
		t.Errorf("empty Tx should have no responses")
	}

	tx := &Tx{
		Req:  Query{Text: Text("SELECT 1")},
		Resp: []Message{CommandComplete{Tag: Text("SELECT 1"), Rows: 1, HasRows: true}},
	}
	req, ok := tx.Request()
	if !ok {
		t.Fatalf("expected a request side")
	}
	if req.Kind() != KindQuery {
		t.Errorf("request kind = %v, want %v", req.Kind(), KindQuery)
	}
	if len(tx.Responses()) != 1 {
		t.Errorf("responses = %d, want 1", len(tx.Responses()))
	}
}
