package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"
)

// Fetch downloads a settings file from any go-getter source (http, s3, git,
// local path) to dst, creating dst's directory.
func Fetch(ctx context.Context, src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("fetch settings: empty source or destination")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("fetch settings %s: %w", src, err)
	}
	return nil
}

// FetchAndLoad downloads a settings file and loads it.
func FetchAndLoad(ctx context.Context, src, dst string) (Settings, error) {
	if err := Fetch(ctx, src, dst); err != nil {
		return Default(), err
	}
	return Load(dst)
}
