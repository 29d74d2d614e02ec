package probe

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindSuccess        Kind = "success"
	KindStatusError    Kind = "status_error"
	KindTransportError Kind = "transport_error"
	KindDecodeError    Kind = "decode_error"
)

// DefaultResources are the resources probed when nothing else is configured.
var DefaultResources = []string{"transactions", "balance", "requests"}

// Outcome is the result of probing a single resource. It is one of
// Success, StatusError, TransportError or DecodeError.
type Outcome interface {
	Kind() Kind
	OK() bool
	String() string
}

type Success struct {
	Payload interface{}
}

type StatusError struct {
	Code int
}

type TransportError struct {
	Message string
}

// DecodeError is recorded when a resource answered 200 but its body is not valid JSON.
type DecodeError struct {
	Message string
}

func (Success) Kind() Kind        { return KindSuccess }
func (StatusError) Kind() Kind    { return KindStatusError }
func (TransportError) Kind() Kind { return KindTransportError }
func (DecodeError) Kind() Kind    { return KindDecodeError }

func (Success) OK() bool        { return true }
func (StatusError) OK() bool    { return false }
func (TransportError) OK() bool { return false }
func (DecodeError) OK() bool    { return false }

func (s Success) String() string {
	out, err := json.Marshal(s.Payload)
	if err != nil {
		return fmt.Sprintf("%v", s.Payload)
	}
	return string(out)
}

func (s StatusError) String() string {
	return fmt.Sprintf("Error: %d", s.Code)
}

func (t TransportError) String() string {
	return fmt.Sprintf("Request failed: %s", t.Message)
}

func (d DecodeError) String() string {
	return fmt.Sprintf("Decode failed: %s", d.Message)
}

type Result struct {
	Resource string
	Outcome  Outcome
}

// Results maps resource names to outcomes, keeping the order in which the
// resources were probed.
type Results struct {
	entries []Result
	index   map[string]int
}

func NewResults() *Results {
	return &Results{
		index: make(map[string]int),
	}
}

// Set records the outcome for a resource. Setting an existing resource
// replaces its outcome in place.
func (r *Results) Set(resource string, outcome Outcome) {
	if r.index == nil {
		r.index = make(map[string]int)
	}

	if i, ok := r.index[resource]; ok {
		r.entries[i].Outcome = outcome
		return
	}

	r.index[resource] = len(r.entries)
	r.entries = append(r.entries, Result{Resource: resource, Outcome: outcome})
}

func (r *Results) Get(resource string) (Outcome, bool) {
	i, ok := r.index[resource]
	if !ok {
		return nil, false
	}
	return r.entries[i].Outcome, true
}

func (r *Results) Len() int {
	return len(r.entries)
}

func (r *Results) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Resource)
	}
	return names
}

// Entries returns a copy of the recorded results in probe order.
func (r *Results) Entries() []Result {
	out := make([]Result, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Results) AllOK() bool {
	for _, e := range r.entries {
		if !e.Outcome.OK() {
			return false
		}
	}
	return true
}
