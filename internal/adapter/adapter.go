package adapter

import (
	"context"
	"fmt"
	"time"
)

// Source produces records of one kind
type Source[T any] interface {
	// Name identifies the source in logs and reports
	Name() string
	// Fetch polls the source once
	Fetch(ctx context.Context) ([]T, error)
}

type namedSource[T any] struct {
	name  string
	fetch func(ctx context.Context) ([]T, error)
}

func (s namedSource[T]) Name() string { return s.name }

func (s namedSource[T]) Fetch(ctx context.Context) ([]T, error) { return s.fetch(ctx) }

// Named turns a fetch method into a Source
func Named[T any](name string, fetch func(ctx context.Context) ([]T, error)) Source[T] {
	return namedSource[T]{name: name, fetch: fetch}
}

// Outcome is the result of one source call. Records is never nil and is
// empty whenever Err is set.
type Outcome[T any] struct {
	Source   string        `json:"source"`
	Records  []T           `json:"-"`
	Err      error         `json:"-"`
	Elapsed  time.Duration `json:"elapsed"`
	Disabled bool          `json:"disabled,omitempty"`
}

// OK reports whether the source answered
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Collect calls src and converts any error or panic into an empty outcome.
// A nil src yields a disabled, empty outcome.
func Collect[T any](ctx context.Context, src Source[T]) (out Outcome[T]) {
	if src == nil {
		return Outcome[T]{Records: []T{}, Disabled: true}
	}

	start := time.Now()
	out.Source = src.Name()
	defer func() {
		if p := recover(); p != nil {
			out.Records = []T{}
			out.Err = fmt.Errorf("source %s panicked: %v", out.Source, p)
		}
		out.Elapsed = time.Since(start)
	}()

	records, err := src.Fetch(ctx)
	if err != nil {
		out.Records = []T{}
		out.Err = err
		return out
	}
	if records == nil {
		records = []T{}
	}
	out.Records = records
	return out
}
