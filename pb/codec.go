package pb

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype the hand-maintained messages travel
// under.
const CodecName = "json"

// Codec marshals the message structs in this package as JSON. It registers
// under the "json" content-subtype, so a server importing this package serves
// it alongside the default proto codec and the health service keeps working.
// The clients in this package force it on every call, so callers need no
// extra options.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}

// callOptions forces the codec ahead of any caller-supplied options so client
// invocations never fall back to the proto codec.
func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
}
