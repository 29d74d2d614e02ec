package server

import (
	"sort"

	"github.com/mittwald/authprobe/pkg/probe"
)

type TargetStatus struct {
	Name    string         `json:"-"`
	OK      bool           `json:"ok"`
	Results *probe.Results `json:"results"`
}

type StatusResponse struct {
	Targets map[string]*TargetStatus `json:"targets"`
}

// Names returns the target names in lexical order.
func (s *StatusResponse) Names() []string {
	names := make([]string, 0, len(s.Targets))
	for name := range s.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failing returns the names of all targets with at least one failed resource.
func (s *StatusResponse) Failing() []string {
	var failing []string
	for _, name := range s.Names() {
		if !s.Targets[name].OK {
			failing = append(failing, name)
		}
	}
	return failing
}
