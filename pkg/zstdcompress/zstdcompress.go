// Package zstdcompress provides zstd compression for Connect RPC.
package zstdcompress

import (
	"io"

	"connectrpc.com/connect"
	"github.com/klauspost/compress/zstd"
)

// Name is the encoding token negotiated with clients.
const Name = "zstd"

type decompressor struct {
	decoder *zstd.Decoder
}

func (d *decompressor) Read(p []byte) (int, error) {
	if d.decoder == nil {
		return 0, io.EOF
	}
	return d.decoder.Read(p)
}

func (d *decompressor) Reset(r io.Reader) error {
	if d.decoder == nil {
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return err
		}
		d.decoder = decoder
		return nil
	}
	return d.decoder.Reset(r)
}

// Close only detaches the source; the decoder itself is pooled by connect
// and reused via Reset.
func (d *decompressor) Close() error {
	if d.decoder == nil {
		return nil
	}
	return d.decoder.Reset(nil)
}

// NewZstdCompressor returns a connect.Compressor backed by a zstd encoder.
func NewZstdCompressor() connect.Compressor {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	return encoder
}

// NewZstdDecompressor returns a connect.Decompressor backed by a zstd
// decoder.
func NewZstdDecompressor() connect.Decompressor {
	return &decompressor{}
}

// WithCompression registers the zstd encoding on a connect handler.
func WithCompression() connect.HandlerOption {
	return connect.WithCompression(Name, NewZstdDecompressor, NewZstdCompressor)
}
