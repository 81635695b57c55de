// Package kv is the per-session key/value storage that stands in for browser
// local storage: the cart, its item-count cache, one-shot flags and the auth
// token all live under well-known keys.
package kv

import (
	"context"
	"sync"
)

// Storage is scoped to a single session.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-local Storage.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Provider hands out the Storage for a session id.
type Provider interface {
	ForSession(sessionID string) Storage
}

// MemoryProvider keeps one Memory per session for the process lifetime.
type MemoryProvider struct {
	mu       sync.Mutex
	sessions map[string]*Memory
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{sessions: make(map[string]*Memory)}
}

func (p *MemoryProvider) ForSession(sessionID string) Storage {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.sessions[sessionID]
	if !ok {
		m = NewMemory()
		p.sessions[sessionID] = m
	}
	return m
}
