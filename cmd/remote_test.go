package cmd

import (
	"strings"
	"testing"

	"github.com/mittwald/authprobe/internal/config"
	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusPrintsTargetsSortedByName(t *testing.T) {
	backend := bankBackend(t)
	target := func(name string) config.Target {
		return config.Target{Name: name, BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "good"}
	}
	api := statusServer(t, target("zeta"), target("alpha"), target("mid"))

	for i := 0; i < 5; i++ {
		out, err := run(t, "status", "--api-address", api.URL)
		require.NoError(t, err)

		lines := strings.Split(out, "\n")
		require.GreaterOrEqual(t, len(lines), 3)
		assert.Contains(t, lines[0], "alpha")
		assert.Contains(t, lines[1], "mid")
		assert.Contains(t, lines[2], "zeta")
	}
}

func TestStatusFailsWhenAnyTargetFails(t *testing.T) {
	backend := bankBackend(t)
	api := statusServer(t,
		config.Target{Name: "prod", BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "good"},
		config.Target{Name: "staging", BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "expired"},
	)

	out, err := run(t, "status", "--api-address", api.URL)

	assert.ErrorIs(t, err, ErrProbeFailed)
	assert.Contains(t, out, "some resources failed")
	assert.Contains(t, out, "1 target(s) with failed resources: staging")
	assert.Contains(t, out, `"results"`)
}
