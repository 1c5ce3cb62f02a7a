package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrMissingField is returned when a required key or index is absent
	ErrMissingField = errors.New("missing field")
	// ErrNotInteger is returned for counts and amounts with a fractional part
	ErrNotInteger = errors.New("not an integer")
)

// node is one untyped JSON object along with its path, for error messages
type node struct {
	path string
	m    map[string]interface{}
}

func newNode(path string, v interface{}) (node, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		if v == nil {
			return node{}, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return node{}, fmt.Errorf("%s: expected object, got %T", path, v)
	}
	return node{path: path, m: m}, nil
}

func (n node) child(key string) string {
	if n.path == "" {
		return key
	}
	return n.path + "." + key
}

func (n node) has(key string) bool {
	v, ok := n.m[key]
	return ok && v != nil
}

func (n node) object(key string) (node, error) {
	return newNode(n.child(key), n.m[key])
}

// optObject returns an empty node when key is absent
func (n node) optObject(key string) node {
	if !n.has(key) {
		return node{path: n.child(key), m: map[string]interface{}{}}
	}
	o, err := n.object(key)
	if err != nil {
		return node{path: n.child(key), m: map[string]interface{}{}}
	}
	return o
}

func (n node) list(key string) ([]interface{}, error) {
	v, ok := n.m[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, n.child(key))
	}
	l, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected list, got %T", n.child(key), v)
	}
	return l, nil
}

func (n node) optList(key string) []interface{} {
	l, err := n.list(key)
	if err != nil {
		return nil
	}
	return l
}

func (n node) index(key string, i int) (node, error) {
	l, err := n.list(key)
	if err != nil {
		return node{}, err
	}
	path := fmt.Sprintf("%s[%d]", n.child(key), i)
	if i < 0 || i >= len(l) {
		return node{}, fmt.Errorf("%w: %s", ErrMissingField, path)
	}
	return newNode(path, l[i])
}

func (n node) str(key string) (string, error) {
	v, ok := n.m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, n.child(key))
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", n.child(key), v)
	}
	return s, nil
}

// optStr returns "" for absent or non-string values
func (n node) optStr(key string) string {
	s, _ := n.str(key)
	return s
}

func (n node) integer(key string) (int64, error) {
	v, ok := n.m[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, n.child(key))
	}
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", n.child(key), err)
		}
		return wholeNumber(n.child(key), f)
	case float64:
		return wholeNumber(n.child(key), x)
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", n.child(key), err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s: expected number, got %T", n.child(key), v)
	}
}

// wholeNumber accepts integral floats such as 1e3 and rejects 123.9
func wholeNumber(path string, f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s=%v", ErrNotInteger, path, f)
	}
	return int64(f), nil
}
