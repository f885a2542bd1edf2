// Package storage persists worlds: their metadata, modified chunks and the
// player's last position.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrWorldExists = errors.New("world already exists")
)

// Game modes recorded with a world.
const (
	GameModeSurvival = "survival"
	GameModeCreative = "creative"
)

// ChunkStore persists chunk records keyed by world name and chunk column.
// LoadChunk returns ErrNotFound when nothing is stored.
type ChunkStore interface {
	LoadChunk(ctx context.Context, world string, cx, cz int) ([]byte, error)
	SaveChunk(ctx context.Context, world string, cx, cz int, data []byte) error
}

// WorldMeta describes a saved world.
type WorldMeta struct {
	Name      string
	Seed      string
	GameMode  string
	CreatedAt time.Time
	Generated bool
}

// PlayerState is the last known viewer pose in a world.
type PlayerState struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
}

// Store is the full persistence surface used by commands and servers.
type Store interface {
	ChunkStore

	CreateWorld(ctx context.Context, name, seed, gameMode string) (WorldMeta, error)
	World(ctx context.Context, name string) (WorldMeta, error)
	ListWorlds(ctx context.Context) ([]WorldMeta, error)
	DeleteWorld(ctx context.Context, name string) error
	MarkGenerated(ctx context.Context, name string) error

	SavePlayer(ctx context.Context, world string, p PlayerState) error
	LoadPlayer(ctx context.Context, world string) (PlayerState, error)

	Close() error
}

// newMeta fills defaults for a world about to be created. An empty seed is
// replaced by a random one.
func newMeta(name, seed, gameMode string) (WorldMeta, error) {
	if name == "" {
		return WorldMeta{}, errors.New("empty world name")
	}
	if seed == "" {
		seed = uuid.NewString()
	}
	if gameMode == "" {
		gameMode = GameModeSurvival
	}
	if gameMode != GameModeSurvival && gameMode != GameModeCreative {
		return WorldMeta{}, errors.New("unknown game mode " + gameMode)
	}
	return WorldMeta{
		Name:      name,
		Seed:      seed,
		GameMode:  gameMode,
		CreatedAt: time.Now().UTC(),
	}, nil
}
