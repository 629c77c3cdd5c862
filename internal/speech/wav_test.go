package speech

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWav(sampleRate, blockAlign, dataBytes int) []byte {
	var buf bytes.Buffer
	le := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	le(uint32(36 + dataBytes))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(1)) // pcm
	le(uint16(1)) // mono
	le(uint32(sampleRate))
	le(uint32(sampleRate * blockAlign))
	le(uint16(blockAlign))
	le(uint16(16)) // bits per sample

	buf.WriteString("data")
	le(uint32(dataBytes))
	buf.Write(make([]byte, dataBytes))

	return buf.Bytes()
}

func TestParseWavHeader(t *testing.T) {
	// 16kHz mono 16-bit: 32000 bytes of samples is exactly one second.
	info, err := parseWavHeader(buildWav(16000, 2, 32000))
	require.NoError(t, err)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, 1.0, info.Duration)

	info, err = parseWavHeader(buildWav(8000, 2, 8000))
	require.NoError(t, err)
	assert.Equal(t, 0.5, info.Duration)
}

func TestParseWavHeaderSkipsUnknownChunks(t *testing.T) {
	wav := buildWav(16000, 2, 16000)

	// Splice an odd-sized LIST chunk between the header and the fmt chunk;
	// the walker must honor the word-alignment pad byte.
	var buf bytes.Buffer
	buf.Write(wav[:12])
	buf.WriteString("LIST")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(3))
	buf.WriteString("abc\x00")
	buf.Write(wav[12:])

	info, err := parseWavHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0.5, info.Duration)
}

func TestParseWavHeaderTruncatedData(t *testing.T) {
	wav := buildWav(16000, 2, 16000)

	// Overstate the data chunk size; the duration should come from the bytes
	// actually present.
	binary.LittleEndian.PutUint32(wav[40:44], 64000)

	info, err := parseWavHeader(wav)
	require.NoError(t, err)
	assert.Equal(t, 0.5, info.Duration)
}

func TestParseWavHeaderRejectsOtherContainers(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"mp3 header", []byte("ID3\x03\x00\x00\x00\x00\x00\x00")},
		{"riff but not wave", append([]byte("RIFF\x00\x00\x00\x00AVI "), make([]byte, 16)...)},
		{"wave without chunks", []byte("RIFF\x04\x00\x00\x00WAVE")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseWavHeader(test.data)
			assert.Error(t, err)
		})
	}
}

func TestSpreadTimestamps(t *testing.T) {
	words := []string{"the", "quick", "brown", "fox"}
	timestamps := spreadTimestamps(words, 2.0)

	require.Len(t, timestamps, 4)
	assert.Equal(t, "the", timestamps[0].Word)
	assert.Equal(t, 0.0, timestamps[0].StartTime)
	assert.Equal(t, 0.5, timestamps[0].EndTime)
	assert.Equal(t, 1.5, timestamps[3].StartTime)
	assert.Equal(t, 2.0, timestamps[3].EndTime)

	assert.Nil(t, spreadTimestamps(nil, 2.0))
	assert.Nil(t, spreadTimestamps(words, 0))
}

func TestFormatSupported(t *testing.T) {
	assert.True(t, FormatSupported("lecture.wav"))
	assert.True(t, FormatSupported("lecture.WAV"))
	assert.True(t, FormatSupported("clip.tar.ogg"))
	assert.False(t, FormatSupported("notes.txt"))
	assert.False(t, FormatSupported("noextension"))
}
