package admin

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec lets the admin service exchange plain Go structs over gRPC
// without a protoc-generated message set — there is no .proto source for
// this surface, only the hand-rolled Stats RPC in stats.go, so the usual
// protobuf codec has nothing to marshal against. Registered under the
// "proto" name so it replaces the default wire codec for every gRPC server
// and client in this process; the health service's generated messages are
// therefore JSON-encoded by this codec as well.
type jsonCodec struct{}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func (jsonCodec) Name() string { return "proto" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
