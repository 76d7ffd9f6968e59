package collab

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Frames on the socket transport are a CBOR sequence of Envelopes, encoded
// deterministically so identical messages produce identical bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("collab: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// Generous but finite limits for a single frame.
		MaxArrayElements: 1 << 20,
		MaxMapPairs:      1 << 16,
	}.DecMode()
	if err != nil {
		panic("collab: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes an envelope as one frame.
func Marshal(env Envelope) ([]byte, error) {
	return encMode.Marshal(env)
}

// Unmarshal decodes one frame.
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	err := decMode.Unmarshal(data, &env)
	return env, err
}

func newEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

func newDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
