// Package resource shapes persisted records into the JSON objects the web
// and mobile clients consume.
//
// Each resource copies a fixed allow-list of keys from a record, falling back
// to null for unset optional values, and declares what an empty input
// renders as. Shaping depends only on the record and the injected Env.
package resource

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mundotango/internal/observability"

	"gorm.io/gorm"
)

// ErrNullListColumn is returned when a comma-joined column that is expected
// to be present is NULL. Handlers render it as a 500.
var ErrNullListColumn = errors.New("list column is NULL")

// Object is one shaped record.
type Object map[string]any

// EmptyShape is what InitResponse returns for empty input.
type EmptyShape int

const (
	// EmptyObject renders empty input as {}.
	EmptyObject EmptyShape = iota
	// EmptyArray renders empty input as [].
	EmptyArray
	// EmptyPassthrough returns the empty input unchanged.
	EmptyPassthrough
)

func (s EmptyShape) String() string {
	switch s {
	case EmptyObject:
		return "object"
	case EmptyArray:
		return "array"
	default:
		return "passthrough"
	}
}

// Env carries the request-scoped values shaping may need.
type Env struct {
	MediaBaseURL string
	APIToken     string
}

// Resource shapes records of type T.
type Resource[T any] struct {
	Name  string
	Keys  []string
	Empty EmptyShape
	// Schema builds the object for one record; rec is never nil.
	Schema func(rec *T, env Env) (Object, error)
}

// JSONSchema shapes a single record.
func (r *Resource[T]) JSONSchema(rec *T, env Env) (Object, error) {
	obj, err := r.Schema(rec, env)
	if err != nil {
		observability.SerializationErrors.WithLabelValues(r.Name).Inc()
		return nil, fmt.Errorf("%s resource: %w", r.Name, err)
	}
	return obj, nil
}

// InitResponse shapes nil, a record (value or pointer), or a slice of
// records. Nil records in a slice are skipped. Empty input yields the
// resource's EmptyShape.
func (r *Resource[T]) InitResponse(env Env, data any) (any, error) {
	switch v := data.(type) {
	case nil:
		return r.empty(data), nil
	case *T:
		if v == nil {
			return r.empty(data), nil
		}
		return r.JSONSchema(v, env)
	case T:
		return r.JSONSchema(&v, env)
	case []T:
		if len(v) == 0 {
			return r.empty(data), nil
		}
		out := make([]Object, len(v))
		for i := range v {
			obj, err := r.JSONSchema(&v[i], env)
			if err != nil {
				return nil, err
			}
			out[i] = obj
		}
		return out, nil
	case []*T:
		out := make([]Object, 0, len(v))
		for _, rec := range v {
			if rec == nil {
				continue
			}
			obj, err := r.JSONSchema(rec, env)
			if err != nil {
				return nil, err
			}
			out = append(out, obj)
		}
		if len(out) == 0 {
			return r.empty(data), nil
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s resource: unsupported input %T", r.Name, data)
	}
}

func (r *Resource[T]) empty(data any) any {
	switch r.Empty {
	case EmptyArray:
		return []Object{}
	case EmptyPassthrough:
		return data
	default:
		return Object{}
	}
}

// orNull maps "" to nil.
func orNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func ptrOrNull[V any](p *V) any {
	if p == nil {
		return nil
	}
	return *p
}

func timeOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// withTimestamps adds createdAt, updatedAt and deletedAt to o.
func withTimestamps(o Object, created, updated time.Time, deleted gorm.DeletedAt) Object {
	o["createdAt"] = timeOrNull(created)
	o["updatedAt"] = timeOrNull(updated)
	if deleted.Valid {
		o["deletedAt"] = deleted.Time
	} else {
		o["deletedAt"] = nil
	}
	return o
}

// SplitList splits a comma-joined column, trimming entries and dropping
// empty ones. An empty column yields an empty slice.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitRequired is SplitList for columns that must not be NULL.
func splitRequired(column string, s *string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullListColumn, column)
	}
	return SplitList(*s), nil
}

// NormalizeImageURL returns nil for an empty url, absolute http(s) urls
// unchanged, and anything else joined onto base.
func NormalizeImageURL(base, url string) any {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	if base == "" {
		return url
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(url, "/")
}
