package helper

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const envPrefix = "ENV:"

// ResolveEnv replaces values of the form "ENV:NAME" with the content of the
// environment variable NAME.
func ResolveEnv(in string) string {
	if strings.HasPrefix(in, envPrefix) {
		return os.Getenv(in[len(envPrefix):])
	}
	return in
}

func SetDefaultStringIfEmpty(value, defaultValue, field, kind string) string {
	if len(value) == 0 {
		log.WithFields(log.Fields{"kind": kind, "field": field}).Infof("no %s specified, assuming default %q", field, defaultValue)
		return defaultValue
	}
	return value
}

func SetDefaultSliceIfEmpty(value, defaultValue []string, field, kind string) []string {
	if len(value) == 0 {
		log.WithFields(log.Fields{"kind": kind, "field": field}).Infof("no %s specified, assuming default %v", field, defaultValue)
		return append([]string(nil), defaultValue...)
	}
	return value
}
