package storage

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Chunk blobs start with one codec byte.
const (
	codecRaw  byte = 0
	codecZstd byte = 1
)

var (
	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
)

func encoder() *zstd.Encoder {
	encOnce.Do(func() {
		// A nil writer is valid when only EncodeAll is used.
		enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return enc
}

func decoder() *zstd.Decoder {
	decOnce.Do(func() {
		dec, _ = zstd.NewReader(nil)
	})
	return dec
}

func encodeChunk(data []byte, compress bool) []byte {
	if !compress {
		out := make([]byte, 0, len(data)+1)
		out = append(out, codecRaw)
		return append(out, data...)
	}
	return encoder().EncodeAll(data, []byte{codecZstd})
}

func decodeChunk(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty chunk blob")
	}
	switch blob[0] {
	case codecRaw:
		out := make([]byte, len(blob)-1)
		copy(out, blob[1:])
		return out, nil
	case codecZstd:
		out, err := decoder().DecodeAll(blob[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown chunk codec %d", blob[0])
	}
}
