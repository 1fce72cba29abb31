package audiodev

import "github.com/freetvgo/freetvgo/internal/arq"

// ServiceTransceiver adapts a Transceiver's ServiceCallback to the
// Callback signature Open expects, so a real PortAudio stream and the
// ARQ engine's audio glue can be wired together with one line.
func ServiceTransceiver(tc *arq.Transceiver) Callback {
	return func(in []int16, out []int16) {
		tc.ServiceCallback(in, out)
	}
}
