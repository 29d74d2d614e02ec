package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mittwald/authprobe/internal/helper"
	"github.com/mittwald/authprobe/pkg/pidfile"
	"github.com/mittwald/authprobe/pkg/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	listenAddress string
	pidFile       string
)

func init() {
	serveCmd.Flags().StringVarP(&listenAddress, "listen-address", "l", server.DefaultListenAddress, "address of the status server; use unix:///path/to/socket for a unix socket")
	serveCmd.Flags().StringVar(&pidFile, "pidfile", "", "write authprobes process id to this file")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve probe results over HTTP",
	Long:  "This sub-command starts a status server that probes the configured targets on request and streams results over websockets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pidFileHandle := pidfile.New(pidFile)
		if err := pidFileHandle.Acquire(); err != nil {
			return err
		}

		defer func() {
			if err := pidFileHandle.Release(); err != nil {
				log.Errorf("error while cleaning up the pid file: %s", err)
			}
		}()

		handler, err := server.NewHandler(cfg)
		if err != nil {
			return err
		}

		signals := make(chan os.Signal, 1)
		signal.Notify(signals,
			syscall.SIGTERM,
			syscall.SIGINT,
		)
		defer signal.Stop(signals)

		log.WithField("targets", cfg.TargetNames()).Info("starting status server")
		addr := helper.SetDefaultStringIfEmpty(listenAddress, server.DefaultListenAddress, "listen-address", "server")
		if err := server.Run(handler, signals, addr); err != nil {
			return err
		}

		log.Info("status server stopped without error")
		return nil
	},
}
