package rpcsrv

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec stands in for the protoc-generated codec this surface would
// otherwise need. Every request/response type here already carries the
// json tags its storage-layer counterpart uses (rules.Rule, in
// particular), so there is no .pb.go generation step — Marshal/Unmarshal
// go straight through encoding/json.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
