package wav

import (
	"beatrender/types"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const (
	HeaderSize = 44
	formatPCM  = 1
	bitDepth   = 16
)

// ParseHeader reads and validates the fixed 44-byte header.
func ParseHeader(data []byte) (types.WavHeader, error) {
	var header types.WavHeader
	if len(data) < HeaderSize {
		return header, &types.FormatError{Reason: fmt.Sprintf("truncated header (%d bytes)", len(data))}
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &header); err != nil {
		return header, &types.FormatError{Reason: err.Error()}
	}
	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return header, &types.FormatError{Reason: "missing RIFF/WAVE markers"}
	}
	if header.AudioFormat != formatPCM {
		return header, &types.FormatError{Reason: fmt.Sprintf("format tag %d is not PCM", header.AudioFormat)}
	}
	if header.NumChannels != 1 && header.NumChannels != 2 {
		return header, &types.FormatError{Reason: fmt.Sprintf("unsupported channel count %d (expect mono or stereo)", header.NumChannels)}
	}
	if header.BitsPerSample != bitDepth {
		return header, &types.FormatError{Reason: fmt.Sprintf("unsupported bits-per-sample %d (expect 16-bit PCM)", header.BitsPerSample)}
	}
	if header.SampleRate == 0 || header.SampleRate > math.MaxInt32 {
		return header, &types.FormatError{Reason: fmt.Sprintf("invalid sample rate %d", header.SampleRate)}
	}
	return header, nil
}

// Decode turns a 16-bit PCM WAV into a mono RawSample at its own rate.
// Stereo frames are averaged with truncation toward zero.
func Decode(data []byte) (types.RawSample, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return types.RawSample{}, err
	}

	payload := data[HeaderSize:]
	count := len(payload) / 2
	pcm := make([]int16, count)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}

	if header.NumChannels == 2 {
		pcm = downmix(pcm)
	}

	return types.RawSample{
		Data:       pcm,
		SampleRate: int(header.SampleRate),
	}, nil
}

// DecodeFile reads and decodes a WAV file from disk.
func DecodeFile(filename string) (types.RawSample, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return types.RawSample{}, err
	}
	sample, err := Decode(data)
	if err != nil {
		if fe, ok := err.(*types.FormatError); ok {
			fe.Asset = filename
		}
		return types.RawSample{}, err
	}
	return sample, nil
}

func downmix(interleaved []int16) []int16 {
	frames := len(interleaved) / 2
	mono := make([]int16, frames)
	for f := 0; f < frames; f++ {
		sum := int32(interleaved[f*2]) + int32(interleaved[f*2+1])
		mono[f] = clamp16(sum/2, math.MinInt16, math.MaxInt16)
	}
	return mono
}

func clamp16(v, lo, hi int32) int16 {
	if v > hi {
		return int16(hi)
	}
	if v < lo {
		return int16(lo)
	}
	return int16(v)
}
