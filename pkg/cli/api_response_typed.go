package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

var _ APIResponse = &TypedAPIResponse[struct{}]{}

// UnexpectedStatusError is set on JSON responses outside the 2xx range.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("status server answered with %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TypedAPIResponse is the decoded answer of the status server. Transport,
// decoding and server side errors are carried in Error instead of being
// returned, so that callers can still print what the server sent.
type TypedAPIResponse[TBody any] struct {
	StatusCode  int   `json:"statusCode"`
	Body        TBody `json:"body"`
	Error       error `json:"error"`
	contentType string
	decoded     bool
}

func NewTypedAPIResponse[TBody any](body TBody) func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
	return func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
		apiRes := TypedAPIResponse[TBody]{
			Error: err,
		}
		if resp == nil {
			return &apiRes
		}
		defer resp.Body.Close()

		apiRes.StatusCode = resp.StatusCode
		apiRes.contentType = strings.Split(resp.Header.Get("Content-Type"), ";")[0]

		out, err := io.ReadAll(resp.Body)
		if err != nil {
			apiRes.Error = errors.Wrapf(err, "failed to read body")
			return &apiRes
		}

		switch apiRes.contentType {
		case "application/json":
			if err := json.Unmarshal(out, &body); err != nil {
				apiRes.Error = errors.Wrapf(err, "failed to parse body as JSON (status %d)", resp.StatusCode)
				return &apiRes
			}
			apiRes.Body = body
			apiRes.decoded = true
		case "text/plain":
			// the status server answers lookups of unknown targets in plain text
			apiRes.Error = errors.New(strings.TrimSpace(string(out)))
			return &apiRes
		default:
			apiRes.Error = fmt.Errorf("unknown content type %q (status %d)", apiRes.contentType, resp.StatusCode)
			return &apiRes
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiRes.Error = &UnexpectedStatusError{StatusCode: resp.StatusCode}
		}

		return &apiRes
	}
}

func (resp *TypedAPIResponse[TBody]) Err() error {
	return resp.Error
}

// Decoded reports whether Body holds what the server sent, which is also
// the case for some error responses.
func (resp *TypedAPIResponse[TBody]) Decoded() bool {
	return resp.decoded
}

func (resp *TypedAPIResponse[TBody]) Print() error {
	return resp.PrintTo(os.Stdout, true)
}

// PrintTo writes the error, if any, followed by the decoded body.
func (resp *TypedAPIResponse[TBody]) PrintTo(w io.Writer, color bool) error {
	if resp.Error != nil {
		fmt.Fprintln(w, resp.Error.Error())
		if !resp.decoded {
			return nil
		}
	}

	jsonBody, err := json.Marshal(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal body as JSON")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, jsonBody, "", "    "); err != nil {
		return err
	}

	body := buf.Bytes()
	if color {
		body = pretty.Color(body, nil)
	}

	_, err = fmt.Fprintln(w, string(body))
	return err
}
