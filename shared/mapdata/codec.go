package mapdata

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// EncodeAll e DecodeAll são seguros para uso concorrente.
func initCodec() {
	encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if codecErr != nil {
		return
	}
	decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
}

// blockBytes copia os blocos para um []byte (um byte por voxel).
func blockBytes(blocks []Block) []byte {
	raw := make([]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = byte(b)
	}
	return raw
}

// EncodeBlocks comprime o array de blocos. Retorna também o xxh3 do array cru.
func EncodeBlocks(blocks []Block) (data []byte, digest uint64, err error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, 0, codecErr
	}
	raw := blockBytes(blocks)
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/8)), xxh3.Hash(raw), nil
}

// DecodeBlocks descomprime um array de size³ blocos. Se digest != 0 ele é conferido.
func DecodeBlocks(data []byte, size int, digest uint64) ([]Block, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, codecErr
	}
	want := size * size * size
	raw, err := decoder.DecodeAll(data, make([]byte, 0, want))
	if err != nil {
		return nil, fmt.Errorf("mapdata: zstd: %w", err)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("%w: %d bytes, esperado %d", ErrSizeMismatch, len(raw), want)
	}
	if digest != 0 && xxh3.Hash(raw) != digest {
		return nil, fmt.Errorf("mapdata: digest não confere")
	}
	blocks := make([]Block, want)
	for i, b := range raw {
		blocks[i] = Block(b)
		if !blocks[i].Valid() {
			return nil, fmt.Errorf("%w: %d no índice %d", ErrInvalidBlock, b, i)
		}
	}
	return blocks, nil
}
