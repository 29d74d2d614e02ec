package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

const (
	FormatLines    = "lines"
	FormatJSON     = "json"
	FormatTemplate = "template"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var ErrUnknownFormat = errors.New("unknown output format")

// ValidateFormat checks format and color settings without touching the network.
func ValidateFormat(format, templatePath, color string) error {
	switch format {
	case FormatLines, FormatJSON:
	case FormatTemplate:
		if templatePath == "" {
			return errors.New("--template is required with --output=template")
		}
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	switch color {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return fmt.Errorf("unknown color mode %q; use auto, always or never", color)
	}
}

// UseColor resolves a color mode for w. In auto mode only terminals get colors.
func UseColor(w io.Writer, mode string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TemplateData is handed to user supplied report templates.
type TemplateData struct {
	Target    string
	BaseURL   string
	Anonymous bool
	Results   []probe.Result
	AllOK     bool
	Env       map[string]string
}

// NewTemplateData collects the data for a report template. Environment
// variables holding one of the given secrets are left out of Env.
func NewTemplateData(target, baseURL string, anonymous bool, results *probe.Results, secrets ...string) *TemplateData {
	data := TemplateData{
		Target:    target,
		BaseURL:   baseURL,
		Anonymous: anonymous,
		Results:   results.Entries(),
		AllOK:     results.AllOK(),
		Env:       make(map[string]string),
	}

	for _, e := range os.Environ() {
		e := strings.SplitN(e, "=", 2)
		if len(e) > 1 && !isSecret(e[1], secrets) {
			data.Env[e[0]] = e[1]
		}
	}

	return &data
}

func isSecret(value string, secrets []string) bool {
	for _, s := range secrets {
		if s != "" && strings.Contains(value, s) {
			return true
		}
	}
	return false
}

// Lines writes one "resource: outcome" line per result.
func Lines(w io.Writer, results *probe.Results) error {
	for _, e := range results.Entries() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", e.Resource, e.Outcome); err != nil {
			return err
		}
	}
	return nil
}

func JSON(w io.Writer, results *probe.Results, color bool) error {
	out, err := json.Marshal(results)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal results as JSON")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "    "); err != nil {
		return err
	}

	body := buf.Bytes()
	if color {
		body = pretty.Color(body, nil)
	}

	_, err = fmt.Fprintln(w, string(body))
	return err
}

func Template(w io.Writer, path string, data *TemplateData) error {
	tplContents, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read template %s", path)
	}

	return TemplateString(w, path, string(tplContents), data)
}

func TemplateString(w io.Writer, name, contents string, data *TemplateData) error {
	tpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(contents)
	if err != nil {
		return errors.Wrapf(err, "failed to parse template %s", name)
	}

	return tpl.Execute(w, data)
}
