package utils

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestShrinkImageKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 20, 10)
	result, err := ShrinkImage(64, "image/png", data)
	require.NoError(t, err)
	assert.Equal(t, data, result.Data)
	assert.EqualValues(t, 20, result.NewX)
	assert.EqualValues(t, 10, result.NewY)

	result, err = ShrinkImage(0, "image/png", encodePNG(t, 2000, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2000, result.NewX)
}

func TestShrinkImageKeepsFormat(t *testing.T) {
	result, err := ShrinkImage(50, "image/png", encodePNG(t, 200, 100))
	require.NoError(t, err)
	assert.EqualValues(t, 200, result.OldX)
	assert.EqualValues(t, 50, result.NewX)
	assert.EqualValues(t, 25, result.NewY)
	_, format, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 200)), nil))
	result, err = ShrinkImage(50, "image/jpeg", buf.Bytes())
	require.NoError(t, err)
	assert.EqualValues(t, 25, result.NewX)
	assert.EqualValues(t, 50, result.NewY)
	_, format, err = image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

// withDeclaredSize rewrites the IHDR chunk of a PNG so it claims width x height
func withDeclaredSize(data []byte, width, height uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestShrinkImageRejectsHugeCanvas(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
	}{
		{"square", 12000, 12000},
		{"wide", 65536, 1000},
		{"past uint16", 70000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withDeclaredSize(encodePNG(t, 1, 1), tt.width, tt.height)
			cfg, err := png.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, err)
			require.EqualValues(t, tt.width, cfg.Width)

			_, err = ShrinkImage(1280, "image/png", data)
			if int64(tt.width)*int64(tt.height) > MaxSourcePixels {
				assert.ErrorIs(t, err, ErrImageDimensions)
			} else {
				assert.NotErrorIs(t, err, ErrImageDimensions)
			}
		})
	}
}

func TestShrinkImageRejectsGarbage(t *testing.T) {
	_, err := ShrinkImage(50, "image/png", []byte("not an image"))
	assert.Error(t, err)
}

func TestCacheRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		router CacheRouter
		want   string
	}{
		{CacheRouter{}, "no-cache"},
		{CacheRouter{CacheTime: 60}, "private, max-age=60"},
		{CacheRouter{CacheTime: 60, Public: true}, "public, max-age=60"},
		{CacheRouter{CacheTime: CacheCustom}, ""},
	}
	for _, tt := range tests {
		engine := gin.New()
		engine.GET("/", tt.router.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tt.want, rec.Header().Get("Cache-Control"))
	}
}
