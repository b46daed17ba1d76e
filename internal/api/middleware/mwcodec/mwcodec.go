// Package mwcodec provides the JSON codec for Connect RPC.
package mwcodec

import (
	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// jsonCodec serializes the hand-declared request/response structs with
// goccy/go-json. Zero-value fields stay in the output so clients always
// observe a stable shape.
type jsonCodec struct {
	name string
}

var _ connect.Codec = (*jsonCodec)(nil)

func (c *jsonCodec) Name() string {
	return c.name
}

func (c *jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// NewJSONCodec creates the codec used by every handler and client.
func NewJSONCodec() connect.Codec {
	return &jsonCodec{name: "json"}
}

// WithJSONCodec returns the connect option registering the codec.
func WithJSONCodec() connect.HandlerOption {
	return connect.WithCodec(NewJSONCodec())
}
