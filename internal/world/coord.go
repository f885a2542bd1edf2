package world

import (
	"math"

	"github.com/uptrixio/platformer/internal/config"
)

// ChunkCoord addresses a chunk column on the XZ plane.
type ChunkCoord struct {
	X, Z int
}

// Origin returns the global block coordinate of the chunk's (0,MinY,0) cell.
func (c ChunkCoord) Origin() (x, y, z int) {
	return c.X * config.ChunkSize, config.MinY, c.Z * config.ChunkSize
}

// ChunkCoordAt returns the chunk containing global block column (x, z).
func ChunkCoordAt(x, z int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, config.ChunkSize), Z: floorDiv(z, config.ChunkSize)}
}

// ChunkCoordForPos returns the chunk containing a continuous position.
func ChunkCoordForPos(x, z float32) ChunkCoord {
	return ChunkCoordAt(int(math.Floor(float64(x))), int(math.Floor(float64(z))))
}

// splitXZ converts a global column to its chunk and local coordinates.
func splitXZ(x, z int) (ChunkCoord, int, int) {
	return ChunkCoordAt(x, z), mod(x, config.ChunkSize), mod(z, config.ChunkSize)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
