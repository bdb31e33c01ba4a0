// Package output holds the registry of transaction loggers. Protocol
// modules register a serializer for their completion events at start-up;
// the emit pipeline looks the serializer up by protocol when a completed
// transaction arrives.
package output

import (
	"fmt"
	"sync"

	"github.com/lucaderi/pgsentry/internal/pgsentry/jsonbuilder"
)

// Protocol names accepted by the registry.
const (
	ProtoPostgreSQL = "pgsql"
)

// TxLogFunc serializes one completed transaction into the open document
// scope. It returns false when the handle is unusable and the record
// should be dropped.
type TxLogFunc func(vtx any, js *jsonbuilder.Builder) bool

// TxLogger is one registered transaction logger module.
type TxLogger struct {
	Name     string
	Protocol string
	LogFunc  TxLogFunc
}

var (
	mu        sync.RWMutex
	txLoggers = make(map[string]TxLogger)
)

// RegisterTxLogger registers fn as the serializer for protocol's
// transaction-completion events. Registering the same protocol twice or
// a nil function is a programming error and panics during start-up.
func RegisterTxLogger(name, protocol string, fn TxLogFunc) {
	if fn == nil {
		panic(fmt.Sprintf("output: nil log func for %q", name))
	}
	mu.Lock()
	defer mu.Unlock()
	if prev, ok := txLoggers[protocol]; ok {
		panic(fmt.Sprintf("output: protocol %q already registered by %q", protocol, prev.Name))
	}
	txLoggers[protocol] = TxLogger{Name: name, Protocol: protocol, LogFunc: fn}
}

// LookupTxLogger returns the logger registered for protocol.
func LookupTxLogger(protocol string) (TxLogger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := txLoggers[protocol]
	return l, ok
}
