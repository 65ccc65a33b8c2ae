package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	appLog "icalq/internal/log"
)

// Kind classifies a Load input.
type Kind int

const (
	KindLiteral Kind = iota
	KindFile
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindURL:
		return "url"
	default:
		return "literal"
	}
}

// AcquisitionError reports a URL or path that could not be read.
type AcquisitionError struct {
	Input string
	Kind  Kind
	Err   error
}

func (e *AcquisitionError) Error() string {
	in := e.Input
	if e.Kind == KindURL {
		in = redactURL(in)
	}
	return fmt.Sprintf("acquire %s %s: %v", e.Kind, in, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Classify decides whether input is a URL, an existing file or literal text.
//
//   - URL: begins with "http" and parses as an absolute URL with a host.
//   - file: contains no newline and names an existing regular file.
//   - anything else is calendar text.
func Classify(input string) Kind {
	if strings.HasPrefix(input, "http") {
		if u, err := url.ParseRequestURI(input); err == nil && u.Scheme != "" && u.Host != "" {
			return KindURL
		}
	}
	if input != "" && !strings.Contains(input, "\n") {
		if fi, err := os.Stat(input); err == nil && fi.Mode().IsRegular() {
			return KindFile
		}
	}
	return KindLiteral
}

// Loader turns a Load input into calendar text.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader returns a Loader fetching URLs through f. A nil f gets an
// uncached Fetcher with the default timeout.
func NewLoader(f *Fetcher) *Loader {
	if f == nil {
		f = NewFetcher("", 0)
	}
	return &Loader{fetcher: f}
}

// Load returns the text behind input. Literal input is returned as is.
func (l *Loader) Load(ctx context.Context, input string) (string, error) {
	kind := Classify(input)
	switch kind {
	case KindURL:
		res, err := l.fetcher.FetchOne(ctx, Source{ID: "load", URL: input})
		if err != nil {
			return "", &AcquisitionError{Input: input, Kind: kind, Err: err}
		}
		return string(res.Body), nil
	case KindFile:
		data, err := os.ReadFile(input)
		if err != nil {
			return "", &AcquisitionError{Input: input, Kind: kind, Err: err}
		}
		appLog.Debug("calendar file read", "path", input, "bytes", len(data))
		return string(data), nil
	default:
		return input, nil
	}
}
