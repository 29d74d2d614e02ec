package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mittwald/authprobe/internal/config"
	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/mittwald/authprobe/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bankBackend accepts only "Bearer good".
func bankBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/balance") {
			_, _ = w.Write([]byte(`{"balance": "1200"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStatusServer(t *testing.T, targets ...config.Target) *httptest.Server {
	t.Helper()
	h, err := server.NewHandler(&config.Config{Targets: targets})
	require.NoError(t, err)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		require.Equal(t, "application/json", res.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestStatusIsOKWhenEveryTargetSucceeds(t *testing.T) {
	backend := bankBackend(t)
	srv := newStatusServer(t, config.Target{Name: "bank", BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "good"})

	var status server.StatusResponse
	code := getJSON(t, srv.URL+"/status", &status)

	assert.Equal(t, http.StatusOK, code)
	require.Contains(t, status.Targets, "bank")
	assert.True(t, status.Targets["bank"].OK)
	assert.Equal(t, probe.DefaultResources, status.Targets["bank"].Results.Names())
}

func TestStatusIsUnavailableWhenAnyTargetFails(t *testing.T) {
	backend := bankBackend(t)
	srv := newStatusServer(t,
		config.Target{Name: "good", BaseURL: backend.URL + "/", Resources: probe.DefaultResources, Token: "good"},
		config.Target{Name: "bad", BaseURL: backend.URL + "/", Resources: probe.DefaultResources, Token: "expired"},
	)

	var status server.StatusResponse
	code := getJSON(t, srv.URL+"/status", &status)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, status.Targets["good"].OK)
	assert.False(t, status.Targets["bad"].OK)
	assert.Equal(t, []string{"bad", "good"}, status.Names())
	assert.Equal(t, []string{"bad"}, status.Failing())

	outcome, ok := status.Targets["bad"].Results.Get("balance")
	require.True(t, ok)
	assert.Equal(t, probe.StatusError{Code: 401}, outcome)
}

func TestTargetsListsConfiguredTargetsInOrder(t *testing.T) {
	srv := newStatusServer(t,
		config.Target{Name: "b", BaseURL: "http://127.0.0.1:1/"},
		config.Target{Name: "a", BaseURL: "http://127.0.0.1:1/"},
	)

	var names []string
	code := getJSON(t, srv.URL+"/v1/targets", &names)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"b", "a"}, names)
}

func TestProbeSingleTarget(t *testing.T) {
	backend := bankBackend(t)
	srv := newStatusServer(t, config.Target{Name: "bank", BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "good"})

	results := probe.NewResults()
	code := getJSON(t, srv.URL+"/v1/targets/bank/probe", results)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, results.AllOK())

	balance, _ := results.Get("balance")
	assert.Equal(t, probe.Success{Payload: map[string]interface{}{"balance": "1200"}}, balance)
}

func TestProbeSingleTargetAnonymously(t *testing.T) {
	backend := bankBackend(t)
	srv := newStatusServer(t, config.Target{Name: "bank", BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "good"})

	results := probe.NewResults()
	getJSON(t, srv.URL+"/v1/targets/bank/probe?anonymous=true", results)

	require.Equal(t, 3, results.Len())
	for _, e := range results.Entries() {
		assert.Equal(t, "Error: 401", e.Outcome.String())
	}
}

func TestProbeUnknownTarget(t *testing.T) {
	srv := newStatusServer(t)

	code := getJSON(t, srv.URL+"/v1/targets/nope/probe", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStreamSendsOneMessagePerResource(t *testing.T) {
	backend := bankBackend(t)
	srv := newStatusServer(t, config.Target{Name: "bank", BaseURL: backend.URL + "/dev/", Resources: probe.DefaultResources, Token: "good"})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/targets/bank/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var streamed []string
	for {
		var r probe.Result
		err := conn.ReadJSON(&r)
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %s", err)
			break
		}
		assert.True(t, r.Outcome.OK())
		streamed = append(streamed, r.Resource)
	}

	assert.Equal(t, probe.DefaultResources, streamed)
}

func TestRunServesOnUnixSocketUntilSignalled(t *testing.T) {
	backend := bankBackend(t)
	h, err := server.NewHandler(&config.Config{Targets: []config.Target{
		{Name: "bank", BaseURL: backend.URL + "/", Resources: []string{"balance"}, Token: "good"},
	}})
	require.NoError(t, err)

	socket := filepath.Join(t.TempDir(), "authprobe.sock")
	signals := make(chan os.Signal, 1)
	done := make(chan error, 1)

	go func() {
		done <- server.Run(h, signals, "unix://"+socket)
	}()

	client := &http.Client{Transport: &http.Transport{
		DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
			return net.Dial("unix", socket)
		},
	}}

	require.Eventually(t, func() bool {
		res, err := client.Get("http://unix/status")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	signals <- syscall.SIGTERM

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after SIGTERM")
	}
}
