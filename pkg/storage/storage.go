// Package storage provides the persistent key-value store the console uses in place of the
// browser's local storage. Values are opaque strings; callers own their encoding.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetItem when the key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a string key-value store.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Namespace scopes every key of s under prefix, so one backend can hold the
// storage of many browsers.
func Namespace(s Storage, prefix string) Storage {
	if prefix == "" {
		return s
	}
	return &namespaced{inner: s, prefix: prefix + ":"}
}

type namespaced struct {
	inner  Storage
	prefix string
}

func (n *namespaced) GetItem(ctx context.Context, key string) (string, error) {
	return n.inner.GetItem(ctx, n.prefix+key)
}

func (n *namespaced) SetItem(ctx context.Context, key, value string) error {
	return n.inner.SetItem(ctx, n.prefix+key, value)
}

func (n *namespaced) RemoveItem(ctx context.Context, key string) error {
	return n.inner.RemoveItem(ctx, n.prefix+key)
}

func (n *namespaced) Ping(ctx context.Context) error {
	return n.inner.Ping(ctx)
}
