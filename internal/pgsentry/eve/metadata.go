// Package eve serializes completed PostgreSQL wire transactions into
// structured EVE records. The package is pure: it reads a borrowed
// transaction handle, writes into a caller-supplied document builder,
// and keeps no state between calls, so concurrent use is safe.
package eve

import (
	"github.com/lucaderi/pgsentry/internal/pgsentry/jsonbuilder"
	"github.com/lucaderi/pgsentry/internal/pgsentry/pgwire"
)

// DefaultQueryTextCap bounds emitted statement text. Adversarial clients
// control statement length, so the cap keeps one record's cost bounded.
const DefaultQueryTextCap = 4096

// Options tune serialization. The zero value selects defaults.
type Options struct {
	// QueryTextCap is the maximum byte length of any emitted text field.
	// Text beyond the cap is cut and marked with truncated: true.
	QueryTextCap int
}

func (o Options) withDefaults() Options {
	if o.QueryTextCap <= 0 {
		o.QueryTextCap = DefaultQueryTextCap
	}
	return o
}

// defaults is set once by Configure during start-up and read-only
// afterwards.
var defaults = Options{QueryTextCap: DefaultQueryTextCap}

// Configure replaces the package defaults used by AddMetadata. Call it
// before serving, never concurrently with serialization.
func Configure(opts Options) {
	defaults = opts.withDefaults()
}

// AddMetadata writes the metadata of one completed transaction into the
// current object scope of js. vtx is the opaque handle supplied by the
// host; the only fatal condition is a handle that is not a usable
// transaction, reported by returning false before anything is written.
// Every per-field oddity short of that is absorbed: absent fields are
// omitted, oversized text is truncated, unrecognized message groups emit
// their kind tag and nothing else.
func AddMetadata(vtx any, js *jsonbuilder.Builder) bool {
	return AddMetadataOpts(vtx, js, defaults)
}

// AddMetadataOpts is AddMetadata with explicit options.
func AddMetadataOpts(vtx any, js *jsonbuilder.Builder, opts Options) bool {
	if js == nil {
		return false
	}
	// A typed-nil *Tx satisfies the interface assertion but has nothing
	// behind it; treat it like any other unusable handle.
	if t, isTx := vtx.(*pgwire.Tx); isTx && t == nil {
		return false
	}
	tx, ok := vtx.(pgwire.Transaction)
	if !ok || tx == nil {
		return false
	}
	opts = opts.withDefaults()

	if req, ok := tx.Request(); ok {
		js.OpenObject("request")
		js.SetString("kind", req.Kind().String())
		extractMessage(js, req, opts)
		js.Close()
	}

	// Response groups stay an ordered list: a pipelined request yields
	// several CommandComplete entries, and a result set followed by an
	// error keeps both, in arrival order.
	if resp := tx.Responses(); len(resp) > 0 {
		js.OpenArray("response")
		for _, msg := range resp {
			js.AppendObject()
			js.SetString("kind", msg.Kind().String())
			extractMessage(js, msg, opts)
			js.Close()
		}
		js.Close()
	}

	return true
}
