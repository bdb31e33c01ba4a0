package pgwire

// Transaction is the read-only view of one completed request/response
// exchange. The parser owns the underlying data and may reuse or free it
// as soon as the observing call returns; consumers must not retain the
// handle or anything reachable from it.
type Transaction interface {
	// Request returns the client-side message group, if one was captured.
	Request() (Message, bool)
	// Responses returns the server-side message groups in arrival order.
	// The returned slice is owned by the transaction.
	Responses() []Message
}

// Tx is the concrete transaction record produced by the capture decoder.
// A transaction may have either side absent: a startup probe has no
// response yet, an unsolicited server notice has no request.
type Tx struct {
	ID   uint64
	Req  Message
	Resp []Message
}

func (t *Tx) Request() (Message, bool) {
	if t.Req == nil {
		return nil, false
	}
	return t.Req, true
}

func (t *Tx) Responses() []Message {
	return t.Resp
}
