// Package config holds the world constants and the tunable settings loaded
// from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Chunk dimensions. The vertical range of the world is [MinY, MaxY).
const (
	ChunkSize   = 16
	ChunkHeight = 192
	MinY        = -64
	MaxY        = MinY + ChunkHeight
	ChunkVolume = ChunkSize * ChunkSize * ChunkHeight
)

// Render distance bounds in chunks.
const (
	MinRenderDistance = 2
	MaxRenderDistance = 32
)

// Settings is the full runtime configuration.
type Settings struct {
	RenderDistance     int     `yaml:"render_distance"`
	MenuRenderDistance int     `yaml:"menu_render_distance"`
	MaxChunksPerTick   int     `yaml:"max_chunks_per_tick"`
	ReachDistance      float32 `yaml:"reach_distance"`

	Terrain Terrain `yaml:"terrain"`
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
}

// Terrain tunes procedural generation. Changing any value changes the
// generated world for every seed.
type Terrain struct {
	SeaLevel         int     `yaml:"sea_level"`
	BaseHeight       float64 `yaml:"base_height"`
	HeightMultiplier float64 `yaml:"height_multiplier"`
	HeightOctaves    int     `yaml:"height_octaves"`
	HeightFrequency  float64 `yaml:"height_frequency"`
	HeightShape      int     `yaml:"height_shape"` // 1 linear, 2 squared
	BiomeFrequency   float64 `yaml:"biome_frequency"`
	BeachThreshold   float64 `yaml:"beach_threshold"`
	CaveFrequency    float64 `yaml:"cave_frequency"`
	CaveThreshold    float64 `yaml:"cave_threshold"`
	SoilDepth        int     `yaml:"soil_depth"`
	TreeChance       float64 `yaml:"tree_chance"`
	BedrockLayers    int     `yaml:"bedrock_layers"`
}

// Storage selects where worlds are persisted.
type Storage struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// Server configures the websocket endpoint.
type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		RenderDistance:     8,
		MenuRenderDistance: 4,
		MaxChunksPerTick:   2,
		ReachDistance:      6,
		Terrain:            DefaultTerrain(),
		Storage: Storage{
			Path:     "data/worlds.db",
			Compress: true,
		},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultTerrain returns the stock terrain shape.
func DefaultTerrain() Terrain {
	return Terrain{
		SeaLevel:         5,
		BaseHeight:       10,
		HeightMultiplier: 60,
		HeightOctaves:    6,
		HeightFrequency:  0.005,
		HeightShape:      1,
		BiomeFrequency:   0.002,
		BeachThreshold:   0.6,
		CaveFrequency:    0.08,
		CaveThreshold:    0.3,
		SoilDepth:        3,
		TreeChance:       0.02,
		BedrockLayers:    1,
	}
}

// Load reads a YAML settings file on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if strings.TrimSpace(path) == "" {
		s.Normalize()
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Normalize clamps values into their usable ranges and fills zero values.
func (s *Settings) Normalize() {
	s.RenderDistance = ClampRenderDistance(s.RenderDistance)
	if s.MenuRenderDistance <= 0 {
		s.MenuRenderDistance = 4
	}
	s.MenuRenderDistance = ClampRenderDistance(s.MenuRenderDistance)
	if s.MaxChunksPerTick <= 0 {
		s.MaxChunksPerTick = 2
	}
	if s.ReachDistance <= 0 {
		s.ReachDistance = 6
	}
	d := DefaultTerrain()
	t := &s.Terrain
	if t.HeightOctaves <= 0 {
		t.HeightOctaves = d.HeightOctaves
	}
	if t.HeightFrequency <= 0 {
		t.HeightFrequency = d.HeightFrequency
	}
	if t.HeightShape != 2 {
		t.HeightShape = 1
	}
	if t.BiomeFrequency <= 0 {
		t.BiomeFrequency = d.BiomeFrequency
	}
	if t.CaveFrequency <= 0 {
		t.CaveFrequency = d.CaveFrequency
	}
	if t.SoilDepth <= 0 {
		t.SoilDepth = d.SoilDepth
	}
	if t.BedrockLayers <= 0 {
		t.BedrockLayers = 1
	}
}

// Validate reports settings that cannot produce a playable world.
func (s Settings) Validate() error {
	t := s.Terrain
	var errs []error
	if t.SeaLevel < MinY || t.SeaLevel >= MaxY {
		errs = append(errs, fmt.Errorf("terrain.sea_level %d outside [%d,%d)", t.SeaLevel, MinY, MaxY))
	}
	if t.CaveThreshold < 0 || t.CaveThreshold > 1 {
		errs = append(errs, fmt.Errorf("terrain.cave_threshold %v outside [0,1]", t.CaveThreshold))
	}
	if t.BeachThreshold < 0 || t.BeachThreshold > 1 {
		errs = append(errs, fmt.Errorf("terrain.beach_threshold %v outside [0,1]", t.BeachThreshold))
	}
	if t.TreeChance < 0 || t.TreeChance > 1 {
		errs = append(errs, fmt.Errorf("terrain.tree_chance %v outside [0,1]", t.TreeChance))
	}
	if t.BedrockLayers >= ChunkHeight {
		errs = append(errs, fmt.Errorf("terrain.bedrock_layers %d fills the world", t.BedrockLayers))
	}
	return errors.Join(errs...)
}

// ClampRenderDistance keeps a render distance within supported bounds.
func ClampRenderDistance(distance int) int {
	if distance < MinRenderDistance {
		return MinRenderDistance
	}
	if distance > MaxRenderDistance {
		return MaxRenderDistance
	}
	return distance
}

// Merge copies file values into cfg for every setting whose command-line
// flag was not given explicitly. cfg holds the flag values.
func Merge(cfg *Settings, fromFile *Settings, explicitFlags map[string]bool) {
	if !explicitFlags["render-distance"] {
		cfg.RenderDistance = fromFile.RenderDistance
	}
	if !explicitFlags["max-chunks-per-tick"] {
		cfg.MaxChunksPerTick = fromFile.MaxChunksPerTick
	}
	if !explicitFlags["db"] {
		cfg.Storage.Path = fromFile.Storage.Path
	}
	if !explicitFlags["compress"] {
		cfg.Storage.Compress = fromFile.Storage.Compress
	}
	if !explicitFlags["addr"] {
		cfg.Server.Addr = fromFile.Server.Addr
	}
	cfg.MenuRenderDistance = fromFile.MenuRenderDistance
	cfg.ReachDistance = fromFile.ReachDistance
	cfg.Terrain = fromFile.Terrain
	cfg.Normalize()
}
