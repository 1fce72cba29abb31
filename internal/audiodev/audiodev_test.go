package audiodev

import (
	"testing"

	"github.com/freetvgo/freetvgo/internal/arq"
	"github.com/freetvgo/freetvgo/internal/modemcodec"
	"github.com/stretchr/testify/assert"
)

func TestServiceTransceiverFillsOutBuffer(t *testing.T) {
	forward := modemcodec.NewLoopbackCodec(modemcodec.Forward)
	control := modemcodec.NewLoopbackCodec(modemcodec.Control)
	tc := arq.NewTransceiver(forward, control, 4096, nil)

	cb := ServiceTransceiver(tc)

	in := make([]int16, 64)
	out := make([]int16, 64)
	for i := range out {
		out[i] = 999 // poison value to confirm the callback overwrites it
	}

	cb(in, out)

	for _, v := range out {
		assert.NotEqual(t, int16(999), v)
	}
}

