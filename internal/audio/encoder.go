package audio

import (
	"fmt"

	"github.com/thesyncim/gopus"
)

const opusSampleRate = 48_000
const opusChannels = 1
const opusMaxPayloadBytes = 4000

// FrameSamples is the number of PCM samples accumulated before one Opus
// frame is encoded and sent.
const FrameSamples = 960 // 20ms @ 48kHz

// Encoder wraps a pure-Go Opus encoder for the single-channel PCM stream
// the demodulators produce.
type Encoder struct {
	enc *gopus.Encoder
}

// NewEncoder builds an Opus encoder for the fixed audio pipeline rate.
func NewEncoder() (*Encoder, error) {
	enc, err := gopus.NewEncoder(opusSampleRate, opusChannels, gopus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("audio: creating opus encoder: %w", err)
	}
	return &Encoder{enc: enc}, nil
}

// Encode compresses exactly FrameSamples int16 PCM samples into an Opus
// payload.
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	payload, err := e.enc.Encode(pcm, FrameSamples, opusMaxPayloadBytes)
	if err != nil {
		return nil, fmt.Errorf("audio: opus encode: %w", err)
	}
	return payload, nil
}
