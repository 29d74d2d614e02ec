package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/mittwald/authprobe/pkg/probe"
)

var _ APIResponse = &StreamingAPIResponse{}

type StreamingAPIResponseHandler func(ctx context.Context, conn *websocket.Conn, results chan probe.Result, err chan error)

type StreamingAPIResponse struct {
	url           *url.URL
	dialer        *websocket.Dialer
	streamingFunc StreamingAPIResponseHandler
	err           error
}

func NewStreamingAPIResponse(url *url.URL, dialer *websocket.Dialer, streamingFunc StreamingAPIResponseHandler) *StreamingAPIResponse {
	return &StreamingAPIResponse{
		url:           url,
		dialer:        dialer,
		streamingFunc: streamingFunc,
	}
}

func (resp *StreamingAPIResponse) Err() error {
	return resp.err
}

// Each dials the stream and calls fn for every received result until the
// server closes the connection.
func (resp *StreamingAPIResponse) Each(fn func(probe.Result)) error {
	if resp.err != nil {
		return resp.err
	}

	conn, _, err := resp.dialer.Dial(resp.url.String(), nil)
	if err != nil {
		return fmt.Errorf("error dialing to %s: %w", resp.url.String(), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	resultChan := make(chan probe.Result)
	errChan := make(chan error)
	defer func() {
		cancel()
		_ = conn.Close()
	}()

	go resp.streamingFunc(ctx, conn, resultChan, errChan)

	for {
		select {
		case r := <-resultChan:
			fn(r)
		case err := <-errChan:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
	}
}

func (resp *StreamingAPIResponse) Print() error {
	return resp.Each(func(r probe.Result) {
		fmt.Printf("%s: %s\n", r.Resource, r.Outcome)
	})
}
