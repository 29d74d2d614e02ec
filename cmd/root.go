package cmd

import (
	"errors"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/mittwald/authprobe/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configDir string
var logLevel string
var enableProfile bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", config.DefaultConfigDir, "set directory to where your .hcl-configs are located")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "set the log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&enableProfile, "profile", false, "enable pprof http server")
}

var rootCmd = &cobra.Command{
	Use:          "authprobe",
	Short:        "authprobe - check authenticated REST endpoints",
	Long:         "authprobe fetches a fixed set of REST resources with a bearer token and reports the outcome for every resource",
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)

		if enableProfile {
			go func() {
				mux := http.NewServeMux()
				mux.HandleFunc("/debug/pprof/", pprof.Index)
				mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
				mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
				mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
				mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

				listener, err := net.Listen("tcp", "127.0.0.1:0")
				if err != nil {
					log.Errorf("pprof server failed to listen: %v", err)
					return
				}
				log.Infof("Starting pprof server on http://%s/debug/pprof/", listener.Addr().String())
				err = http.Serve(listener, mux)
				if err != nil {
					log.Errorf("pprof server error: %v", err)
				}
			}()
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}

	err := cfg.GenerateFromConfigDir(configDir)
	if errors.Is(err, config.ErrNoConfigFiles) {
		log.Warnf("no configuration files found in %s, using built-in target %q", configDir, config.DefaultTargetName)
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
