// Package discoveryv1 holds the wire messages, codec and service descriptor of the
// discokeeper.discovery.v1.Discovery gRPC API.
package discoveryv1

import (
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the API ("application/grpc+json").
const CodecName = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (codec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}

// CallOption selects the JSON codec for a call. NewDiscoveryClient adds it to every call.
func CallOption() grpc.CallOption { return grpc.CallContentSubtype(CodecName) }
