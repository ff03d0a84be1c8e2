package wav

import (
	"beatrender/types"
	"beatrender/utils"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// NewHeader builds the mono 16-bit PCM header for n samples at sampleRate.
func NewHeader(n, sampleRate int) types.WavHeader {
	const (
		numChannels   = 1
		bitsPerSample = bitDepth
	)
	dataSize := uint32(n * numChannels * bitsPerSample / 8)
	return types.WavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatPCM,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * numChannels * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// Encode serializes mono samples into a complete WAV container.
func Encode(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(samples)*2)

	// Writes to a bytes.Buffer cannot fail.
	header := NewHeader(len(samples), sampleRate)
	_ = binary.Write(&buf, binary.LittleEndian, &header)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// Persist writes data to dest through a temp file in the same directory,
// so dest either holds the complete file or does not exist.
func Persist(data []byte, dest string) (types.AudioFile, error) {
	dir := filepath.Dir(dest)
	if err := utils.MkDir(dir); err != nil {
		return types.AudioFile{}, &types.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(dest)+"_*")
	if err != nil {
		return types.AudioFile{}, &types.IOError{Op: "create", Path: dest, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return types.AudioFile{}, &types.IOError{Op: "write", Path: dest, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return types.AudioFile{}, &types.IOError{Op: "sync", Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return types.AudioFile{}, &types.IOError{Op: "close", Path: dest, Err: err}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return types.AudioFile{}, &types.IOError{Op: "rename", Path: dest, Err: err}
	}
	committed = true

	return types.AudioFile{Path: dest, Bytes: int64(len(data))}, nil
}

// WriteFile encodes and persists in one call.
func WriteFile(dest string, samples []int16, sampleRate int) (types.AudioFile, error) {
	return Persist(Encode(samples, sampleRate), dest)
}

// RenderFilename generates a unique name for a bounced bar. The random
// suffix keeps concurrent renders within the same second apart.
func RenderFilename(outputDir, title string, now time.Time) string {
	slug := utils.Slug(title)
	if slug == "" {
		slug = "render"
	}
	id := uuid.New().String()[:8]
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.wav", slug, now.Format("20060102_150405"), id))
}
