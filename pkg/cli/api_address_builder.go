package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const unixSocketPrefix = "unix://"

// apiEndpoint is a parsed API address. socketPath is only set for unix sockets,
// in which case base carries a placeholder host.
type apiEndpoint struct {
	base       *url.URL
	socketPath string
}

// parseAPIAddress understands the same address forms "authprobe serve
// --listen-address" does (":9102", "host:9102", "unix:///run/authprobe.sock")
// as well as full http and https URLs with an optional path prefix.
func parseAPIAddress(address string) (*apiEndpoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		address = DefaultAPIAddress
	}

	if strings.HasPrefix(address, unixSocketPrefix) {
		socketPath := strings.TrimPrefix(address, unixSocketPrefix)
		if socketPath == "" {
			return nil, fmt.Errorf("API address %q names no socket", address)
		}
		return &apiEndpoint{
			base:       &url.URL{Scheme: "http", Host: "unix"},
			socketPath: socketPath,
		}, nil
	}

	if !strings.Contains(address, "://") {
		if strings.HasPrefix(address, ":") {
			address = "localhost" + address
		}
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid API address %q", address)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in API address %q", u.Scheme, address)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("API address %q has no host", address)
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return &apiEndpoint{base: u}, nil
}

func (e *apiEndpoint) dialUnix() (net.Conn, error) {
	return net.Dial("unix", e.socketPath)
}

// url returns a copy of the base URL with path appended.
func (e *apiEndpoint) url(path string) *url.URL {
	u := *e.base
	u.Path += path
	return &u
}

func (api *APIClient) buildHTTPClientAndURL(path string) (*http.Client, *url.URL, error) {
	endpoint, err := parseAPIAddress(api.apiAddress)
	if err != nil {
		return nil, nil, err
	}

	if endpoint.socketPath == "" {
		return &http.Client{}, endpoint.url(path), nil
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(context.Context, string, string) (net.Conn, error) {
				return endpoint.dialUnix()
			},
		},
	}, endpoint.url(path), nil
}

func (api *APIClient) buildWebsocketURL(path string) (*websocket.Dialer, *url.URL, error) {
	endpoint, err := parseAPIAddress(api.apiAddress)
	if err != nil {
		return nil, nil, err
	}

	u := endpoint.url(path)
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	if endpoint.socketPath == "" {
		return websocket.DefaultDialer, u, nil
	}

	return &websocket.Dialer{
		NetDial: func(string, string) (net.Conn, error) {
			return endpoint.dialUnix()
		},
	}, u, nil
}
