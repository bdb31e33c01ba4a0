package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaderi/pgsentry/internal/pgsentry/jsonbuilder"
)

func stubLogFunc(vtx any, js *jsonbuilder.Builder) bool { return true }

func TestRegisterAndLookup(t *testing.T) {
	RegisterTxLogger("stub-pgsql", "test-proto", stubLogFunc)

	l, ok := LookupTxLogger("test-proto")
	require.True(t, ok)
	assert.Equal(t, "stub-pgsql", l.Name)
	assert.Equal(t, "test-proto", l.Protocol)
	assert.NotNil(t, l.LogFunc)

	_, ok = LookupTxLogger("no-such-proto")
	assert.False(t, ok)
}

func TestRegisterTwicePanics(t *testing.T) {
	RegisterTxLogger("first", "dup-proto", stubLogFunc)
	assert.Panics(t, func() {
		RegisterTxLogger("second", "dup-proto", stubLogFunc)
	})
}

func TestRegisterNilFuncPanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterTxLogger("nil-fn", "nil-proto", nil)
	})
}
