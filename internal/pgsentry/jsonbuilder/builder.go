// Package jsonbuilder provides an append-only JSON document builder.
//
// A Builder is a single pass over one output document: the caller opens
// nested object/array scopes, sets scalar values, closes scopes, and
// finally calls Finish to obtain the encoded bytes. Keys are written in
// call order and each key must be written at most once per scope; the
// builder never reads values back. Misuse (unbalanced scopes, writes
// after Finish) is reported as an error from Finish, never as a panic.
package jsonbuilder

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigFastest

type scope byte

const (
	scopeObject scope = iota
	scopeArray
)

// Builder accumulates one JSON document. The zero value is not usable;
// call New.
type Builder struct {
	buf      bytes.Buffer
	stack    []scope
	needSep  []bool
	err      error
	finished bool
}

// New returns a Builder with the root object already open.
func New() *Builder {
	b := &Builder{}
	b.buf.WriteByte('{')
	b.stack = append(b.stack, scopeObject)
	b.needSep = append(b.needSep, false)
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) writable() bool {
	if b.err != nil {
		return false
	}
	if b.finished {
		b.fail(errors.New("jsonbuilder: write after Finish"))
		return false
	}
	return true
}

// sep writes the comma separator when the current scope already holds an
// entry.
func (b *Builder) sep() {
	top := len(b.needSep) - 1
	if b.needSep[top] {
		b.buf.WriteByte(',')
	}
	b.needSep[top] = true
}

func (b *Builder) key(k string) {
	b.sep()
	b.writeString(k)
	b.buf.WriteByte(':')
}

// writeString encodes s as a JSON string, including quotes and escapes.
func (b *Builder) writeString(s string) {
	enc, err := json.Marshal(s)
	if err != nil {
		b.fail(fmt.Errorf("jsonbuilder: encode string: %w", err))
		return
	}
	b.buf.Write(enc)
}

func (b *Builder) inObject() bool {
	return b.stack[len(b.stack)-1] == scopeObject
}

// SetString writes key: "value" into the current object scope.
func (b *Builder) SetString(key, value string) {
	if !b.writable() {
		return
	}
	if !b.inObject() {
		b.fail(fmt.Errorf("jsonbuilder: SetString(%q) inside array scope", key))
		return
	}
	b.key(key)
	b.writeString(value)
}

// SetInt writes key: value into the current object scope.
func (b *Builder) SetInt(key string, value int64) {
	if !b.writable() {
		return
	}
	if !b.inObject() {
		b.fail(fmt.Errorf("jsonbuilder: SetInt(%q) inside array scope", key))
		return
	}
	b.key(key)
	b.buf.WriteString(strconv.FormatInt(value, 10))
}

// SetUint writes key: value into the current object scope.
func (b *Builder) SetUint(key string, value uint64) {
	if !b.writable() {
		return
	}
	if !b.inObject() {
		b.fail(fmt.Errorf("jsonbuilder: SetUint(%q) inside array scope", key))
		return
	}
	b.key(key)
	b.buf.WriteString(strconv.FormatUint(value, 10))
}

// SetBool writes key: true|false into the current object scope.
func (b *Builder) SetBool(key string, value bool) {
	if !b.writable() {
		return
	}
	if !b.inObject() {
		b.fail(fmt.Errorf("jsonbuilder: SetBool(%q) inside array scope", key))
		return
	}
	b.key(key)
	b.buf.WriteString(strconv.FormatBool(value))
}

// OpenObject opens a nested object under key in the current object scope.
func (b *Builder) OpenObject(key string) {
	if !b.writable() {
		return
	}
	if !b.inObject() {
		b.fail(fmt.Errorf("jsonbuilder: OpenObject(%q) inside array scope", key))
		return
	}
	b.key(key)
	b.buf.WriteByte('{')
	b.stack = append(b.stack, scopeObject)
	b.needSep = append(b.needSep, false)
}

// OpenArray opens a nested array under key in the current object scope.
func (b *Builder) OpenArray(key string) {
	if !b.writable() {
		return
	}
	if !b.inObject() {
		b.fail(fmt.Errorf("jsonbuilder: OpenArray(%q) inside array scope", key))
		return
	}
	b.key(key)
	b.buf.WriteByte('[')
	b.stack = append(b.stack, scopeArray)
	b.needSep = append(b.needSep, false)
}

// AppendObject opens a new object element in the current array scope.
func (b *Builder) AppendObject() {
	if !b.writable() {
		return
	}
	if b.inObject() {
		b.fail(errors.New("jsonbuilder: AppendObject outside array scope"))
		return
	}
	b.sep()
	b.buf.WriteByte('{')
	b.stack = append(b.stack, scopeObject)
	b.needSep = append(b.needSep, false)
}

// AppendString appends a string element to the current array scope.
func (b *Builder) AppendString(value string) {
	if !b.writable() {
		return
	}
	if b.inObject() {
		b.fail(errors.New("jsonbuilder: AppendString outside array scope"))
		return
	}
	b.sep()
	b.writeString(value)
}

// Close ends the innermost open scope. The root object is closed by
// Finish, not Close.
func (b *Builder) Close() {
	if !b.writable() {
		return
	}
	if len(b.stack) <= 1 {
		b.fail(errors.New("jsonbuilder: Close on root scope"))
		return
	}
	top := len(b.stack) - 1
	if b.stack[top] == scopeObject {
		b.buf.WriteByte('}')
	} else {
		b.buf.WriteByte(']')
	}
	b.stack = b.stack[:top]
	b.needSep = b.needSep[:top]
}

// Finish closes the root object and returns the encoded document. The
// builder is single-use; any write after Finish is an error.
func (b *Builder) Finish() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.finished {
		return nil, errors.New("jsonbuilder: Finish called twice")
	}
	if len(b.stack) != 1 {
		return nil, fmt.Errorf("jsonbuilder: Finish with %d unclosed scope(s)", len(b.stack)-1)
	}
	b.buf.WriteByte('}')
	b.finished = true
	return b.buf.Bytes(), nil
}

// Len returns the number of bytes written so far. Used by callers that
// need to know whether anything was added to a scope.
func (b *Builder) Len() int { return b.buf.Len() }
