package probe_test

import (
	"encoding/json"
	"testing"

	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultsSetReplacesExistingEntryInPlace(t *testing.T) {
	results := probe.NewResults()
	results.Set("transactions", probe.StatusError{Code: 500})
	results.Set("balance", probe.Success{Payload: "x"})
	results.Set("transactions", probe.StatusError{Code: 403})

	assert.Equal(t, []string{"transactions", "balance"}, results.Names())
	outcome, _ := results.Get("transactions")
	assert.Equal(t, "Error: 403", outcome.String())
}

func TestResultsGetUnknownResource(t *testing.T) {
	_, ok := probe.NewResults().Get("nope")
	assert.False(t, ok)
}

func TestResultsJSONKeepsOrderAndKinds(t *testing.T) {
	results := probe.NewResults()
	results.Set("transactions", probe.StatusError{Code: 403})
	results.Set("balance", probe.Success{Payload: map[string]interface{}{"balance": "1200"}})
	results.Set("requests", probe.TransportError{Message: "dial tcp: connection refused"})
	results.Set("broken", probe.DecodeError{Message: "invalid character"})

	data, err := json.Marshal(results)
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"resource": "transactions", "kind": "status_error", "code": 403},
		{"resource": "balance", "kind": "success", "payload": {"balance": "1200"}},
		{"resource": "requests", "kind": "transport_error", "message": "dial tcp: connection refused"},
		{"resource": "broken", "kind": "decode_error", "message": "invalid character"}
	]`, string(data))

	decoded := probe.NewResults()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, results.Entries(), decoded.Entries())
}

func TestResultsJSONRejectsUnknownKind(t *testing.T) {
	err := json.Unmarshal([]byte(`[{"resource": "balance", "kind": "weird"}]`), probe.NewResults())
	assert.ErrorContains(t, err, "unknown outcome kind")
}

func TestEmptyResultsMarshalAsEmptyArray(t *testing.T) {
	data, err := json.Marshal(probe.NewResults())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
