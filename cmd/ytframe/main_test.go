package main

import (
	"testing"

	"github.com/bodgit/ytframe"
	"github.com/stretchr/testify/assert"
)

func flagDefaults() ytframe.Config {
	return ytframe.Config{
		Width:  1920,
		Height: 1080,
		Block:  8,
		Gutter: 1,
		FPS:    60,
	}
}

func testManifest() *ytframe.Manifest {
	return &ytframe.Manifest{
		Width:     640,
		Height:    360,
		BlockSize: 16,
		Gutter:    2,
		FPS:       30,
	}
}

// A supplied manifest carries the geometry of the encode run, so decoding
// with just --manifest must use it instead of the flag defaults.
func TestDecodeConfigManifestOverridesDefaults(t *testing.T) {
	cfg := decodeConfig(flagDefaults(), map[string]bool{}, testManifest())

	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 360, cfg.Height)
	assert.Equal(t, 16, cfg.Block)
	assert.Equal(t, 2, cfg.Gutter)
	assert.Equal(t, 30, cfg.FPS)
}

func TestDecodeConfigExplicitFlagsWin(t *testing.T) {
	flags := flagDefaults()
	flags.Width = 1280
	flags.Height = 720

	cfg := decodeConfig(flags, map[string]bool{"width": true, "height": true}, testManifest())

	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 16, cfg.Block)
	assert.Equal(t, 2, cfg.Gutter)
	assert.Equal(t, 30, cfg.FPS)
}

func TestDecodeConfigNoManifest(t *testing.T) {
	cfg := decodeConfig(flagDefaults(), map[string]bool{}, nil)
	assert.Equal(t, flagDefaults(), cfg)
}

// An older manifest recording only the payload lengths must not zero out
// the geometry.
func TestDecodeConfigManifestWithoutGeometry(t *testing.T) {
	m := &ytframe.Manifest{CompressedLength: 100, OriginalLength: 100}
	cfg := decodeConfig(flagDefaults(), map[string]bool{}, m)
	assert.Equal(t, flagDefaults(), cfg)
}
