// Package wasm loads contract session code from disk.
package wasm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const maxModuleSize = 16 << 20

var (
	ErrInvalidWasm = errors.New("not a wasm module")
	ErrTooLarge    = errors.New("wasm module too large")
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d}

// Load reads a .wasm file, or a zstd compressed .wasm.zst file, and checks
// the module header
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session code: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	module, err := io.ReadAll(io.LimitReader(r, maxModuleSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(module) > maxModuleSize {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	if err := Check(module); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return module, nil
}

// Check verifies the module starts with the wasm magic and a version word
func Check(module []byte) error {
	if len(module) < 8 || !bytes.Equal(module[:4], magic) {
		return ErrInvalidWasm
	}
	return nil
}

// Compress encodes a module for storage as .wasm.zst
func Compress(module []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(module, nil), nil
}

// Pack checks the module at src and writes it zstd compressed to dst. An
// empty dst means src with ".zst" appended. It returns the written path.
func Pack(src, dst string) (string, error) {
	module, err := Load(src)
	if err != nil {
		return "", err
	}
	if dst == "" {
		dst = src + ".zst"
	}
	packed, err := Compress(module)
	if err != nil {
		return "", fmt.Errorf("failed to compress %s: %w", src, err)
	}
	if err := os.WriteFile(dst, packed, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return dst, nil
}
