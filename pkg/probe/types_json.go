package probe

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

type resultJSON struct {
	Resource string          `json:"resource"`
	Kind     Kind            `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Code     int             `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Resource: r.Resource}

	switch o := r.Outcome.(type) {
	case Success:
		payload, err := json.Marshal(o.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal payload of resource %q", r.Resource)
		}
		out.Kind = KindSuccess
		out.Payload = payload
	case StatusError:
		out.Kind = KindStatusError
		out.Code = o.Code
	case TransportError:
		out.Kind = KindTransportError
		out.Message = o.Message
	case DecodeError:
		out.Kind = KindDecodeError
		out.Message = o.Message
	default:
		return nil, fmt.Errorf("resource %q has no outcome", r.Resource)
	}

	return json.Marshal(&out)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Resource = in.Resource

	switch in.Kind {
	case KindSuccess:
		var payload interface{}
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &payload); err != nil {
				return errors.Wrapf(err, "failed to parse payload of resource %q", in.Resource)
			}
		}
		r.Outcome = Success{Payload: payload}
	case KindStatusError:
		r.Outcome = StatusError{Code: in.Code}
	case KindTransportError:
		r.Outcome = TransportError{Message: in.Message}
	case KindDecodeError:
		r.Outcome = DecodeError{Message: in.Message}
	default:
		return fmt.Errorf("unknown outcome kind %q for resource %q", in.Kind, in.Resource)
	}

	return nil
}

func (r *Results) MarshalJSON() ([]byte, error) {
	entries := r.entries
	if entries == nil {
		entries = []Result{}
	}
	return json.Marshal(entries)
}

func (r *Results) UnmarshalJSON(data []byte) error {
	var entries []Result
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	r.entries = nil
	r.index = make(map[string]int, len(entries))
	for _, e := range entries {
		r.Set(e.Resource, e.Outcome)
	}

	return nil
}
