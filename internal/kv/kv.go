// Package kv is the durable key-value collaborator. Values are JSON
// documents; writes are last-write-wins per key and there is no atomicity
// across keys.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// GetJSON decodes the value at key into dst. It reports false, with no
// error, when the key has never been written.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kv get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("kv decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Prefixed scopes every key under namespace + ":".
type Prefixed struct {
	Store
	namespace string
}

func WithNamespace(s Store, namespace string) *Prefixed {
	return &Prefixed{Store: s, namespace: namespace}
}

func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, p.namespace+":"+key)
}

func (p *Prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.Store.Set(ctx, p.namespace+":"+key, value)
}

// Memory is a process-local Store, used in development and tests.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}
