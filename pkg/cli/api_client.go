package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/mittwald/authprobe/pkg/server"
)

const DefaultAPIAddress = "http://localhost:9102"

type APIClient struct {
	apiAddress string
}

func NewAPIClient(apiAddress string) *APIClient {
	return &APIClient{
		apiAddress: apiAddress,
	}
}

// FailingTargetsError is returned by Status when the server reports at
// least one target with a failed resource.
type FailingTargetsError struct {
	Targets []string
}

func (e *FailingTargetsError) Error() string {
	return fmt.Sprintf("%d target(s) with failed resources: %s", len(e.Targets), strings.Join(e.Targets, ", "))
}

func (api *APIClient) Status() *TypedAPIResponse[server.StatusResponse] {
	client, u, err := api.buildHTTPClientAndURL("/status")
	if err != nil {
		return &TypedAPIResponse[server.StatusResponse]{Error: err}
	}

	resp := NewTypedAPIResponse(server.StatusResponse{})(client.Get(u.String()))
	if resp.StatusCode == http.StatusServiceUnavailable && resp.Decoded() {
		resp.Error = &FailingTargetsError{Targets: resp.Body.Failing()}
	}
	return resp
}

func (api *APIClient) Targets() *TypedAPIResponse[[]string] {
	client, u, err := api.buildHTTPClientAndURL("/v1/targets")
	if err != nil {
		return &TypedAPIResponse[[]string]{Error: err}
	}

	return NewTypedAPIResponse([]string{})(client.Get(u.String()))
}

func (api *APIClient) Probe(target string, anonymous bool) *TypedAPIResponse[*probe.Results] {
	client, u, err := api.buildHTTPClientAndURL(fmt.Sprintf("/v1/targets/%s/probe", target))
	if err != nil {
		return &TypedAPIResponse[*probe.Results]{Error: err}
	}

	setAnonymous(u, anonymous)
	return NewTypedAPIResponse(probe.NewResults())(client.Get(u.String()))
}

func (api *APIClient) Stream(target string, anonymous bool) *StreamingAPIResponse {
	dialer, u, err := api.buildWebsocketURL(fmt.Sprintf("/v1/targets/%s/stream", target))
	if err != nil {
		return &StreamingAPIResponse{err: err}
	}

	setAnonymous(u, anonymous)

	handler := func(ctx context.Context, conn *websocket.Conn, resultChan chan probe.Result, errChan chan error) {
		for {
			var r probe.Result
			if err := conn.ReadJSON(&r); err != nil {
				select {
				case errChan <- err:
				case <-ctx.Done():
				}
				return
			}

			select {
			case resultChan <- r:
			case <-ctx.Done():
				return
			}
		}
	}
	return NewStreamingAPIResponse(u, dialer, handler)
}

func setAnonymous(u *url.URL, anonymous bool) {
	if !anonymous {
		return
	}
	q := u.Query()
	q.Set("anonymous", "true")
	u.RawQuery = q.Encode()
}
