package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaderi/pgsentry/internal/pgsentry/pgwire"
)

func TestDecodeLine_QueryTransaction(t *testing.T) {
	line := `{"timestamp":"2026-03-01 10:15:00 UTC","src_ip":"10.0.0.5","src_port":51234,` +
		`"dest_ip":"10.0.0.9","dest_port":5432,"tx_id":7,` +
		`"request":{"type":"query","query":"SELECT 1"},` +
		`"responses":[{"type":"command_complete","tag":"SELECT 1"}]}`

	rec, err := DecodeLine(line)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01T10:15:00Z", rec.Timestamp)
	assert.Equal(t, "10.0.0.5", rec.SrcIP)
	assert.Equal(t, 51234, rec.SrcPort)
	assert.Equal(t, "10.0.0.9", rec.DestIP)
	assert.Equal(t, 5432, rec.DestPort)
	assert.Equal(t, uint64(7), rec.Tx.ID)

	req, ok := rec.Tx.Request()
	require.True(t, ok)
	q, ok := req.(pgwire.Query)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", q.Text.Display())
	assert.True(t, q.Text.Safe())

	require.Len(t, rec.Tx.Responses(), 1)
	cc, ok := rec.Tx.Responses()[0].(pgwire.CommandComplete)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", cc.Tag.Display())
	// Row count recovered from the command tag.
	assert.True(t, cc.HasRows)
	assert.Equal(t, int64(1), cc.Rows)
}

func TestDecodeLine_ExplicitRowsWinOverTag(t *testing.T) {
	line := `{"request":{"type":"query","query":"INSERT ..."},` +
		`"responses":[{"type":"command_complete","tag":"INSERT 0 5","rows":3}]}`

	rec, err := DecodeLine(line)
	require.NoError(t, err)

	cc := rec.Tx.Responses()[0].(pgwire.CommandComplete)
	assert.True(t, cc.HasRows)
	assert.Equal(t, int64(3), cc.Rows)
}

func TestDecodeLine_SkipCases(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"blank", "   "},
		{"not json", "SOME NOISY BACKGROUND MESSAGE"},
		{"json but no messages", `{"src_ip":"10.0.0.5"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLine(tt.line)
			assert.ErrorIs(t, err, ErrSkipLine)
		})
	}
}

func TestDecodeLine_AllMessageTypes(t *testing.T) {
	line := `{"request":{"type":"startup","protocol_major":3,"protocol_minor":0,` +
		`"parameters":{"user":"alice","database":"salesdb"}},` +
		`"responses":[` +
		`{"type":"authentication","mechanism":"scram-sha-256","payload":"c2VjcmV0"},` +
		`{"type":"parameter_status","name":"server_version","value":"16.3"},` +
		`{"type":"result_set","columns":2,"rows":10},` +
		`{"type":"error","code":"42601","severity":"ERROR"},` +
		`{"type":"notice","severity":"WARNING","message":"w"},` +
		`{"type":"extended_query","statement":"SELECT $1","param_count":1},` +
		`{"type":"tls_request","accepted":true},` +
		`{"type":"termination"},` +
		`{"type":"whatever-this-is","raw_tag":"z"}` +
		`]}`

	rec, err := DecodeLine(line)
	require.NoError(t, err)

	req, ok := rec.Tx.Request()
	require.True(t, ok)
	st, ok := req.(pgwire.Startup)
	require.True(t, ok)
	assert.Equal(t, uint16(3), st.ProtocolMajor)
	assert.Equal(t, "alice", st.Parameters["user"].Display())

	resp := rec.Tx.Responses()
	require.Len(t, resp, 9)

	wantKinds := []pgwire.Kind{
		pgwire.KindAuthentication,
		pgwire.KindParameterStatus,
		pgwire.KindResultSet,
		pgwire.KindError,
		pgwire.KindNotice,
		pgwire.KindExtendedQuery,
		pgwire.KindTLSRequest,
		pgwire.KindTermination,
		pgwire.KindUnknown,
	}
	for i, want := range wantKinds {
		assert.Equal(t, want, resp[i].Kind(), "response %d", i)
	}

	unk := resp[8].(pgwire.Unknown)
	assert.Equal(t, byte('z'), unk.Tag)

	errMsg := resp[3].(pgwire.ErrorResponse)
	assert.True(t, errMsg.Code.Present())
	assert.True(t, errMsg.Severity.Present())
	assert.False(t, errMsg.Message.Present(), "absent wire field stays absent")
}

func TestWireField_Classification(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantPresent bool
		wantSafe    bool
	}{
		{"empty is absent", "", false, false},
		{"plain sql", "SELECT 1", true, true},
		{"multiline sql", "SELECT 1\nFROM t", true, true},
		{"control bytes", "SEL\x00ECT", true, false},
		{"invalid utf8", "SELECT '\xff\xfe'", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := wireField(tt.in)
			assert.Equal(t, tt.wantPresent, f.Present())
			assert.Equal(t, tt.wantSafe, f.Safe())
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-01T10:15:00Z", "2026-03-01T10:15:00Z"},
		{"2026-03-01 10:15:00 UTC", "2026-03-01T10:15:00Z"},
		{"not a time", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeTimestamp(tt.in), "input %q", tt.in)
	}
}
