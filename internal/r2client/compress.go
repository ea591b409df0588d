package r2client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ContentTypeZstd is the content type of compressed objects.
const ContentTypeZstd = "application/zstd"

// maxDecodedSize bounds a decompressed object.
const maxDecodedSize = 256 << 20

// EncodeJSON marshals v as JSON and compresses it with zstd.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("compress: create encoder: %w", err)
	}

	if err := json.NewEncoder(encoder).Encode(v); err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("compress: encode: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("compress: close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeJSON streams a zstd-compressed JSON document from r into v.
func DecodeJSON(r io.Reader, v any) error {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	if err := json.NewDecoder(decoder).Decode(v); err != nil {
		return fmt.Errorf("decompress: decode: %w", err)
	}
	return nil
}
