package filestore

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/qt"
)

func TestStores(t *testing.T) {
	local, err := NewLocalStore(t.TempDir(), "http://cdn.test/media/")
	require.NoError(t, err)

	stores := []struct {
		name    string
		store   core.FileStore
		wantURL string
	}{
		{name: "local", store: local, wantURL: "http://cdn.test/media/qt/a/b.jpg"},
		{name: "memory", store: NewMemoryStore()},
	}
	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			key := "qt/a/b.jpg"

			_, err := tt.store.Open(ctx, key)
			assert.Equal(t, core.ErrFileNotFound, err)

			require.NoError(t, tt.store.Save(ctx, key, strings.NewReader("first"), "image/jpeg"))
			require.NoError(t, tt.store.Save(ctx, key, strings.NewReader("second"), "image/jpeg"))

			rc, err := tt.store.Open(ctx, key)
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			_ = rc.Close()
			assert.Equal(t, "second", string(data))
			assert.Equal(t, tt.wantURL, tt.store.URL(key))

			require.NoError(t, tt.store.Delete(ctx, key))
			require.NoError(t, tt.store.Delete(ctx, key)) // deleting twice is fine
			_, err = tt.store.Open(ctx, key)
			assert.Equal(t, core.ErrFileNotFound, err)
		})
	}
}

func TestLocalStoreKeepsFilesInDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "../../escape.txt", strings.NewReader("x"), "text/plain"))
	fp, err := store.path("../../escape.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fp, dir))
	assert.Empty(t, store.URL("escape.txt"))
}

func pngImage(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoProcessor(t *testing.T) {
	proc := NewPhotoProcessor(core.StorageConfig{MaxImageDimension: 100, MaxImagePixels: 100_000, JPEGQuality: 70})

	tests := []struct {
		name         string
		data         []byte
		wantErr      error
		wantW, wantH int
	}{
		{name: "empty", data: nil, wantErr: qt.ErrUnsupportedPhoto},
		{name: "text", data: []byte("definitely not a photo"), wantErr: qt.ErrUnsupportedPhoto},
		{name: "pdf", data: []byte("%PDF-1.4\n%âãÏÓ\n"), wantErr: qt.ErrUnsupportedPhoto},
		{name: "small png", data: pngImage(t, 40, 30), wantW: 40, wantH: 30},
		{name: "large png", data: pngImage(t, 400, 200), wantW: 100, wantH: 50},
		{name: "too many pixels", data: pngImage(t, 400, 300), wantErr: qt.ErrPhotoTooLarge},
		{name: "truncated header", data: pngImage(t, 40, 30)[:20], wantErr: qt.ErrUnsupportedPhoto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := proc.Process(bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}
