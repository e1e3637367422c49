package providers

import (
	"fmt"
	"strings"
)

// options holds settings shared by every provider constructor.
type options struct {
	baseURL string
}

// Option customizes a provider.
type Option func(*options)

// WithBaseURL overrides the vendor base URL (useful for tests).
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func buildOptions(defaultBase string, opts []Option) options {
	o := options{baseURL: defaultBase}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func coord(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
