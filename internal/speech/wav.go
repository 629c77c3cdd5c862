package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type wavInfo struct {
	SampleRate int
	Duration   float64
}

// parseWavHeader walks the RIFF chunks of a WAV file and derives the clip
// duration from the frame count and sample rate. Other containers (mp3, m4a)
// return an error and callers fall back to an estimate.
func parseWavHeader(data []byte) (wavInfo, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return wavInfo{}, fmt.Errorf("not a wav file")
	}

	var sampleRate, blockAlign, dataSize int

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return wavInfo{}, fmt.Errorf("truncated fmt chunk")
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			blockAlign = int(binary.LittleEndian.Uint16(data[body+12 : body+14]))
		case "data":
			dataSize = chunkSize
			if body+dataSize > len(data) {
				dataSize = len(data) - body
			}
		}

		// Chunks are word aligned.
		offset = body + chunkSize + chunkSize%2
	}

	if sampleRate == 0 || blockAlign == 0 || dataSize == 0 {
		return wavInfo{}, fmt.Errorf("missing fmt or data chunk")
	}

	frames := dataSize / blockAlign

	return wavInfo{
		SampleRate: sampleRate,
		Duration:   float64(frames) / float64(sampleRate),
	}, nil
}
