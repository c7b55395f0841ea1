package ytframe

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bodgit/ytframe/payload"
)

// ManifestFilename is the name the encoder writes next to the video.
const ManifestFilename = "manifest.json"

// Manifest is the side-channel record of an encode run. On decode it is
// only a fallback: the in-band container header always wins when both are
// present.
type Manifest struct {
	InputFile        string `json:"input_file,omitempty"`
	OriginalLength   uint64 `json:"original_length"`
	CompressedLength uint64 `json:"compressed_length"`
	PayloadLength    int    `json:"payload_length,omitempty"`
	Frames           int    `json:"frames,omitempty"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	FrameSizeBytes   int    `json:"frame_size_bytes,omitempty"`
	BlockSize        int    `json:"block_size"`
	Gutter           int    `json:"gutter"`
	FPS              int    `json:"fps"`
	ZstdLevel        int    `json:"zstd_level,omitempty"`
	VideoFile        string `json:"video_file,omitempty"`
	PayloadCRC32     string `json:"payload_crc32,omitempty"`
}

// WriteFile writes the manifest as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("ytframe: write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by a previous encode run.
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ytframe: read manifest: %w", err)
	}
	m := new(Manifest)
	if err := json.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("ytframe: parse manifest: %w", err)
	}
	return m, nil
}

// lengths returns the header fallback values, or nil when the manifest
// does not carry usable lengths.
func (m *Manifest) lengths() *payload.Lengths {
	if m == nil || m.CompressedLength == 0 {
		return nil
	}
	return &payload.Lengths{
		Compressed: m.CompressedLength,
		Original:   m.OriginalLength,
	}
}
