// pkg/network/codec.go
package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Frame flag byte, first byte of every binary frame
const (
	framePlain      byte = 0
	frameCompressed byte = 1
)

// MaxFrameSize bounds decoded frames to keep a hostile peer from
// ballooning memory.
const MaxFrameSize = 1 << 20

var errEmptyFrame = errors.New("empty frame")

// Codec turns messages into wire frames. Payloads above the
// threshold are zstd compressed and marked with the flag byte.
type Codec struct {
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

// NewCodec creates a codec compressing payloads larger than
// threshold bytes. A threshold of zero keeps the default of 1 KiB.
func NewCodec(threshold int) (*Codec, error) {
	if threshold <= 0 {
		threshold = 1024
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{threshold: threshold, enc: enc, dec: dec}, nil
}

// Encode marshals an envelope into a frame
func (c *Codec) Encode(msg *Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if len(payload) <= c.threshold {
		return append([]byte{framePlain}, payload...), nil
	}
	frame := c.enc.EncodeAll(payload, []byte{frameCompressed})
	return frame, nil
}

// Decode unmarshals a frame back into an envelope
func (c *Codec) Decode(frame []byte) (*Message, error) {
	if len(frame) == 0 {
		return nil, errEmptyFrame
	}
	payload := frame[1:]
	switch frame[0] {
	case framePlain:
	case frameCompressed:
		var err error
		payload, err = c.dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress frame: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown frame flag %d", frame[0])
	}
	if len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", len(payload))
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// Close releases the compressor state
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
