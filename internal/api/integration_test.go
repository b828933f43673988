//go:build integration

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/config"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/face"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/service"
)

// Runs against the real YuNet and PP-HumanSeg models. Requires ONNXRUNTIME_LIB
// and a MODELS_DIR holding the YuNet weights; the segmenter is fetched if absent.
func TestIntegration_RealModels(t *testing.T) {
	if os.Getenv("ONNXRUNTIME_LIB") == "" {
		t.Skip("ONNXRUNTIME_LIB not set")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.FaceDetector = string(face.DetectorYuNet)
	cfg.Segmenter = string(face.SegmenterONNX)

	host, err := face.NewHost(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer func() { _ = host.Close() }()

	r := NewRouter(testLogger(), &Dependencies{
		Frames: service.NewFrameProcessor(host.Faces, host.Segmenter),
		Stats:  host,
	}, cfg.MaxImageSize)
	r.Setup()

	t.Run("solid red frame has no detections", func(t *testing.T) {
		body, contentType := multipartBody(t, redPNG(t, 100, 100))
		req := httptest.NewRequest("POST", "/process-frame", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := r.App().Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var result struct {
			Detections []json.RawMessage `json:"detections"`
		}
		respBody, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(respBody, &result))
		assert.Empty(t, result.Detections)
	})

	t.Run("pools report usage", func(t *testing.T) {
		resp, err := r.App().Test(httptest.NewRequest("GET", "/metrics", nil))
		require.NoError(t, err)

		var result struct {
			Pools []struct {
				Name          string `json:"name"`
				TotalAcquired int64  `json:"total_acquired"`
				InUse         int    `json:"sessions_in_use"`
			} `json:"pools"`
		}
		respBody, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(respBody, &result))
		require.Len(t, result.Pools, 2)
		for _, p := range result.Pools {
			assert.Positive(t, p.TotalAcquired, p.Name)
			assert.Zero(t, p.InUse, p.Name)
		}
	})
}
