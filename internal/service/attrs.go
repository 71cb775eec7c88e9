package service

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"mundotango/internal/repository"
)

// Request bodies are decoded into repository.Attrs, so numbers usually
// arrive as float64. These helpers read them back as typed values.

func attrUint(attrs repository.Attrs, key string) (uint, bool) {
	switch v := attrs[key].(type) {
	case float64:
		if v > 0 && v == math.Trunc(v) {
			return uint(v), true
		}
	case int:
		if v > 0 {
			return uint(v), true
		}
	case uint:
		return v, v > 0
	case json.Number:
		if n, err := strconv.ParseUint(v.String(), 10, 64); err == nil && n > 0 {
			return uint(n), true
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return uint(n), true
		}
	}
	return 0, false
}

func attrUints(attrs repository.Attrs, key string) []uint {
	list, _ := attrs[key].([]any)
	out := make([]uint, 0, len(list))
	for _, item := range list {
		if id, ok := attrUint(repository.Attrs{"v": item}, "v"); ok {
			out = append(out, id)
		}
	}
	return out
}

func attrFloat(attrs repository.Attrs, key string) (float64, bool) {
	switch v := attrs[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// attrTime reads an RFC 3339 timestamp. present is false when the key is
// absent or null.
func attrTime(attrs repository.Attrs, key string) (t time.Time, present bool, err error) {
	switch v := attrs[key].(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case string:
		if v == "" {
			return time.Time{}, false, nil
		}
		t, err = time.Parse(time.RFC3339, v)
		return t, true, err
	}
	return time.Time{}, true, strconv.ErrSyntax
}
