package dispatch

import (
	"encoding/json"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Outcomes reported by a session.
const (
	OutcomeDelivered = "Delivered"
	OutcomeFailed    = "Failed"
)

// Result is the terminal outcome of one session. BytesSent counts bytes
// the transport confirmed, also when Err is set.
type Result struct {
	BytesSent int
	Err       error
}

// Delivered reports whether every byte of the session was sent.
func (r Result) Delivered() bool {
	return r.Err == nil
}

// Outcome returns OutcomeDelivered or OutcomeFailed.
func (r Result) Outcome() string {
	if r.Delivered() {
		return OutcomeDelivered
	}
	return OutcomeFailed
}

// Report is the wire form of a Result.
type Report struct {
	BytesSent int    `json:"bytes_sent"`
	Outcome   string `json:"outcome"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (r Result) Report() Report {
	rep := Report{BytesSent: r.BytesSent, Outcome: r.Outcome()}
	if r.Err != nil {
		rep.ErrorKind = printerr.KindOf(r.Err)
		rep.Error = r.Err.Error()
	}
	return rep
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Report())
}
