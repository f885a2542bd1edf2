package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type chunkKey struct {
	world  string
	cx, cz int
}

// Memory is an in-process Store. Records are copied in and out.
type Memory struct {
	mu      sync.Mutex
	worlds  map[string]WorldMeta
	order   map[string]int
	seq     int
	chunks  map[chunkKey][]byte
	players map[string]PlayerState
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		worlds:  make(map[string]WorldMeta),
		order:   make(map[string]int),
		chunks:  make(map[chunkKey][]byte),
		players: make(map[string]PlayerState),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) LoadChunk(_ context.Context, world string, cx, cz int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.chunks[chunkKey{world, cx, cz}]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) SaveChunk(_ context.Context, world string, cx, cz int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunkKey{world, cx, cz}] = append([]byte(nil), data...)
	return nil
}

// ChunkCount returns how many chunk records are stored for world.
func (m *Memory) ChunkCount(world string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.chunks {
		if k.world == world {
			n++
		}
	}
	return n
}

func (m *Memory) CreateWorld(_ context.Context, name, seed, gameMode string) (WorldMeta, error) {
	meta, err := newMeta(name, seed, gameMode)
	if err != nil {
		return WorldMeta{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worlds[name]; ok {
		return WorldMeta{}, fmt.Errorf("%s: %w", name, ErrWorldExists)
	}
	m.seq++
	m.worlds[name] = meta
	m.order[name] = m.seq
	return meta, nil
}

func (m *Memory) World(_ context.Context, name string) (WorldMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.worlds[name]
	if !ok {
		return WorldMeta{}, fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	return meta, nil
}

func (m *Memory) ListWorlds(_ context.Context) ([]WorldMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WorldMeta, 0, len(m.worlds))
	for _, meta := range m.worlds {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.order[out[i].Name] > m.order[out[j].Name]
	})
	return out, nil
}

func (m *Memory) DeleteWorld(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worlds[name]; !ok {
		return fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	delete(m.worlds, name)
	delete(m.order, name)
	delete(m.players, name)
	for k := range m.chunks {
		if k.world == name {
			delete(m.chunks, k)
		}
	}
	return nil
}

func (m *Memory) MarkGenerated(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.worlds[name]
	if !ok {
		return fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	meta.Generated = true
	m.worlds[name] = meta
	return nil
}

func (m *Memory) SavePlayer(_ context.Context, world string, p PlayerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[world] = p
	return nil
}

func (m *Memory) LoadPlayer(_ context.Context, world string) (PlayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[world]
	if !ok {
		return PlayerState{}, fmt.Errorf("player in %s: %w", world, ErrNotFound)
	}
	return p, nil
}
