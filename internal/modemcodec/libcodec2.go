package modemcodec

/*------------------------------------------------------------------
 *
 * Purpose:	cgo binding for the FreeDV raw-data modem API, the
 *		native modem codec contract in spec §6.2.
 *
 * Description:	One handle is opened per Mode and lives for the
 *		lifetime of the engine. This mirrors
 *		original_source/freedv.py's FreeDVData class call for
 *		call: freedv_open, freedv_set_frames_per_burst(h, 1),
 *		freedv_set_verbose(h, 1), then nin/modulate/demodulate
 *		in a loop until freedv_close.
 *
 *------------------------------------------------------------------*/

// #include <stdlib.h>
// #include <string.h>
// #include "freedv_api.h"
// #cgo LDFLAGS: -lcodec2
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// LibCodec2Codec is the production Codec backed by the native library.
type LibCodec2Codec struct {
	mu sync.Mutex

	mode   Mode
	handle *C.struct_freedv

	bytesPerModemFrame int // payload + 2-byte CRC
	nTxModemSamples    int
	nPreambleSamples   int
	nPostambleSamples  int

	nin    int
	closed bool
}

const silenceSamplesPerBurst = 400 // 50ms at 8kHz

// OpenLibCodec2 opens a native modem instance for the given mode.
func OpenLibCodec2(mode Mode) (*LibCodec2Codec, error) {
	handle := C.freedv_open(C.int(mode))
	if handle == nil {
		return nil, fmt.Errorf("modemcodec: freedv_open failed for mode %s", mode)
	}

	C.freedv_set_frames_per_burst(handle, 1)
	C.freedv_set_verbose(handle, 1)

	c := &LibCodec2Codec{
		mode:               mode,
		handle:             handle,
		bytesPerModemFrame: int(C.freedv_get_bits_per_modem_frame(handle)) / 8,
		nTxModemSamples:    int(C.freedv_get_n_tx_modem_samples(handle)),
		nPreambleSamples:   int(C.freedv_get_n_tx_preamble_modem_samples(handle)),
		nPostambleSamples:  int(C.freedv_get_n_tx_postamble_modem_samples(handle)),
		nin:                int(C.freedv_nin(handle)),
	}
	return c, nil
}

func (c *LibCodec2Codec) Mode() Mode { return c.mode }

func (c *LibCodec2Codec) SamplesPerBurst() int {
	return c.nPreambleSamples + c.nTxModemSamples + c.nPostambleSamples + silenceSamplesPerBurst
}

func (c *LibCodec2Codec) Nin() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nin
}

func (c *LibCodec2Codec) ModulateBurst(frame []byte) ([]int16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	payloadLen := c.mode.PayloadBytesPerFrame()
	if len(frame) != payloadLen {
		return nil, fmt.Errorf("modemcodec: frame is %d bytes, want %d", len(frame), payloadLen)
	}

	out := make([]int16, 0, c.SamplesPerBurst())

	preamble := make([]C.short, c.nPreambleSamples)
	C.freedv_rawdatapreambletx(c.handle, &preamble[0])
	out = append(out, shortsToInt16(preamble)...)

	buf := make([]byte, c.bytesPerModemFrame)
	copy(buf, frame)
	crc := C.freedv_gen_crc16((*C.uchar)(unsafe.Pointer(&buf[0])), C.int(payloadLen))
	buf[payloadLen] = byte(crc >> 8)
	buf[payloadLen+1] = byte(crc)

	modOut := make([]C.short, c.nTxModemSamples)
	C.freedv_rawdatatx(c.handle, &modOut[0], (*C.uchar)(unsafe.Pointer(&buf[0])))
	out = append(out, shortsToInt16(modOut)...)

	postamble := make([]C.short, c.nPostambleSamples)
	C.freedv_rawdatapostambletx(c.handle, &postamble[0])
	out = append(out, shortsToInt16(postamble)...)

	out = append(out, make([]int16, silenceSamplesPerBurst)...)

	return out, nil
}

func (c *LibCodec2Codec) Demodulate(samples []int16) (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, ErrClosed
	}

	cSamples := make([]C.short, len(samples))
	for i, s := range samples {
		cSamples[i] = C.short(s)
	}

	out := make([]byte, c.bytesPerModemFrame)
	var nbytes C.size_t
	if len(cSamples) > 0 {
		nbytes = C.freedv_rawdatarx(c.handle, (*C.uchar)(unsafe.Pointer(&out[0])), &cSamples[0])
	}

	c.nin = int(C.freedv_nin(c.handle))
	sync := int(C.freedv_get_rx_status(c.handle))

	if nbytes == 0 {
		return sync, nil, nil
	}
	// Strip the trailing two CRC bytes; the library already validated them.
	payload := out[:int(nbytes)]
	if len(payload) >= 2 {
		payload = payload[:len(payload)-2]
	}
	return sync, payload, nil
}

func (c *LibCodec2Codec) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	C.freedv_close(c.handle)
	return nil
}

func shortsToInt16(in []C.short) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		out[i] = int16(s)
	}
	return out
}
