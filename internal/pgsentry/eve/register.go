package eve

import (
	"sync"

	"github.com/lucaderi/pgsentry/internal/pgsentry/output"
)

// LoggerName identifies this module in the output registry.
const LoggerName = "json-pgsql"

var registerOnce sync.Once

// Register wires the serializer into the output registry for PostgreSQL
// transaction-completion events. It is called once during start-up and
// is idempotent.
func Register() {
	registerOnce.Do(func() {
		output.RegisterTxLogger(LoggerName, output.ProtoPostgreSQL, AddMetadata)
	})
}
