package probe

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	AuthHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// Prober fetches a fixed, ordered list of resources below a common base URL.
type Prober struct {
	baseURL   string
	resources []string
	headers   map[string]string
	client    *http.Client
	timeout   time.Duration
}

type Option func(*Prober)

func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// WithTimeout limits each request. A zero duration keeps the timeout of the
// configured client. The timeout is applied to a copy of that client, no
// matter in which order the options are given.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithHeaders adds static headers to every request. The Authorization
// header is always set from the token and cannot be replaced here.
func WithHeaders(headers map[string]string) Option {
	return func(p *Prober) {
		for k, v := range headers {
			p.headers[k] = v
		}
	}
}

func New(baseURL string, resources []string, opts ...Option) *Prober {
	p := &Prober{
		baseURL:   baseURL,
		resources: append([]string(nil), resources...),
		headers:   make(map[string]string),
		client:    &http.Client{},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.timeout > 0 {
		client := *p.client
		client.Timeout = p.timeout
		p.client = &client
	}

	return p
}

// Probe fetches all resources of baseURL with the given token.
func Probe(baseURL string, resources []string, token string) *Results {
	return New(baseURL, resources).Probe(token)
}

func AuthorizationHeader(token string) string {
	return bearerPrefix + token
}

func (p *Prober) BaseURL() string {
	return p.baseURL
}

func (p *Prober) Resources() []string {
	return append([]string(nil), p.resources...)
}

func (p *Prober) Probe(token string) *Results {
	return p.ProbeEach(token, nil)
}

// ProbeEach works like Probe and additionally calls fn after every resource.
func (p *Prober) ProbeEach(token string, fn func(Result)) *Results {
	runID := uuid.New().String()
	header := p.buildHeader(token)
	results := NewResults()

	for _, resource := range p.resources {
		outcome := p.fetch(p.baseURL+resource, header)
		results.Set(resource, outcome)

		log.WithFields(log.Fields{
			"kind":     "probe",
			"run":      runID,
			"resource": resource,
			"outcome":  outcome.Kind(),
		}).Debug()

		if fn != nil {
			fn(Result{Resource: resource, Outcome: outcome})
		}
	}

	return results
}

func (p *Prober) buildHeader(token string) http.Header {
	header := make(http.Header, len(p.headers)+1)
	for k, v := range p.headers {
		header.Set(k, v)
	}
	header.Set(AuthHeader, AuthorizationHeader(token))
	return header
}

func (p *Prober) fetch(urlStr string, header http.Header) Outcome {
	req, err := http.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return TransportError{Message: err.Error()}
	}
	req.Header = header.Clone()

	res, err := p.client.Do(req)
	if err != nil {
		return TransportError{Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return StatusError{Code: res.StatusCode}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return TransportError{Message: err.Error()}
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return DecodeError{Message: err.Error()}
	}

	return Success{Payload: payload}
}
