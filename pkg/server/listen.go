package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultListenAddress = ":9102"

// Run serves the handler on listenAddr until SIGINT or SIGTERM arrives on
// signals. Addresses of the form "unix:///path" listen on a unix socket.
func Run(h *Handler, signals <-chan os.Signal, listenAddr string) error {
	srv := &http.Server{
		Addr:    listenAddr,
		Handler: h.Router(),
	}

	go func() {
		for s := range signals {
			if s == syscall.SIGINT || s == syscall.SIGTERM {
				log.WithField("receivedSignal", s.String()).Info("shutting down status server")
				_ = srv.Shutdown(context.Background())
				return
			}
		}
	}()

	listener, err := listen(listenAddr)
	if err != nil {
		return err
	}

	log.Infof("status server listens on %s", listener.Addr().String())

	if err := srv.Serve(listener); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func listen(addr string) (net.Listener, error) {
	socketParts := strings.SplitN(addr, "unix://", 2)
	if len(socketParts) <= 1 {
		return net.Listen("tcp", addr)
	}

	socketFile := socketParts[1]
	if err := os.MkdirAll(path.Dir(socketFile), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to prepare folder for socket-file")
	}

	if err := os.Remove(socketFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to remove stale socket-file %q", socketFile)
	}

	return net.Listen("unix", socketFile)
}
