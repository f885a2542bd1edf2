package main

import "github.com/uptrixio/platformer/internal/storage"

// canFly reports whether a world's game mode allows fly mode.
func canFly(mode string) bool {
	return mode == storage.GameModeCreative
}
