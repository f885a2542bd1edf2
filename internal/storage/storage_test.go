package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "worlds.db"), true)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemory(),
	}
}

func TestChunkRoundTrip(t *testing.T) {
	ctx := context.Background()
	data := bytes.Repeat([]byte{0, 1, 2, 3, 3, 3, 3, 3}, 1024)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.LoadChunk(ctx, "w", 0, 0); !errors.Is(err, ErrNotFound) {
				t.Fatalf("missing chunk: got %v, want ErrNotFound", err)
			}
			if err := s.SaveChunk(ctx, "w", -3, 7, data); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := s.LoadChunk(ctx, "w", -3, 7)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatal("loaded chunk differs from saved chunk")
			}

			data2 := bytes.Repeat([]byte{5}, 64)
			if err := s.SaveChunk(ctx, "w", -3, 7, data2); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = s.LoadChunk(ctx, "w", -3, 7)
			if !bytes.Equal(got, data2) {
				t.Fatal("overwrite not visible")
			}
			if _, err := s.LoadChunk(ctx, "other", -3, 7); !errors.Is(err, ErrNotFound) {
				t.Errorf("chunk leaked across worlds: %v", err)
			}
		})
	}
}

func TestWorldLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			a, err := s.CreateWorld(ctx, "alpha", "", "")
			if err != nil {
				t.Fatalf("create alpha: %v", err)
			}
			if a.Seed == "" || a.GameMode != GameModeSurvival {
				t.Errorf("defaults not applied: %+v", a)
			}
			if _, err := s.CreateWorld(ctx, "beta", "12345", GameModeCreative); err != nil {
				t.Fatalf("create beta: %v", err)
			}
			if _, err := s.CreateWorld(ctx, "alpha", "1", ""); !errors.Is(err, ErrWorldExists) {
				t.Fatalf("duplicate: got %v, want ErrWorldExists", err)
			}
			if _, err := s.CreateWorld(ctx, "gamma", "1", "hardcore"); err == nil {
				t.Error("unknown game mode accepted")
			}

			list, err := s.ListWorlds(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].Name != "beta" || list[1].Name != "alpha" {
				t.Fatalf("list not newest first: %+v", list)
			}

			if err := s.MarkGenerated(ctx, "beta"); err != nil {
				t.Fatalf("mark generated: %v", err)
			}
			b, err := s.World(ctx, "beta")
			if err != nil || !b.Generated || b.Seed != "12345" {
				t.Fatalf("world beta: %+v, %v", b, err)
			}

			_ = s.SaveChunk(ctx, "beta", 0, 0, []byte{1})
			_ = s.SavePlayer(ctx, "beta", PlayerState{Position: mgl32.Vec3{1, 2, 3}})
			if err := s.DeleteWorld(ctx, "beta"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.World(ctx, "beta"); !errors.Is(err, ErrNotFound) {
				t.Errorf("deleted world still present: %v", err)
			}
			if _, err := s.LoadChunk(ctx, "beta", 0, 0); !errors.Is(err, ErrNotFound) {
				t.Errorf("chunks not deleted with world: %v", err)
			}
			if _, err := s.LoadPlayer(ctx, "beta"); !errors.Is(err, ErrNotFound) {
				t.Errorf("player not deleted with world: %v", err)
			}
			if err := s.DeleteWorld(ctx, "beta"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second delete: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestPlayerState(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			want := PlayerState{Position: mgl32.Vec3{10.5, 42, -7.25}, Yaw: 1.5, Pitch: -0.25}
			if err := s.SavePlayer(ctx, "w", want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := s.LoadPlayer(ctx, "w")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestCodec(t *testing.T) {
	data := bytes.Repeat([]byte{3}, 4096)
	for _, compress := range []bool{false, true} {
		blob := encodeChunk(data, compress)
		if compress && len(blob) >= len(data) {
			t.Errorf("zstd blob not smaller: %d bytes", len(blob))
		}
		got, err := decodeChunk(blob)
		if err != nil {
			t.Fatalf("compress=%v: %v", compress, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("compress=%v: round trip mismatch", compress)
		}
	}
	if _, err := decodeChunk([]byte{9, 1, 2}); err == nil {
		t.Error("unknown codec accepted")
	}
	if _, err := decodeChunk(nil); err == nil {
		t.Error("empty blob accepted")
	}
}

func TestSQLiteReadsUncompressedRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "w.db")
	raw, err := OpenSQLite(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := raw.SaveChunk(ctx, "w", 1, 1, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	_ = raw.Close()

	z, err := OpenSQLite(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer z.Close()
	got, err := z.LoadChunk(ctx, "w", 1, 1)
	if err != nil || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("got %v, %v", got, err)
	}
}
