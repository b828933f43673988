package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.RetryCount = retries
	cfg.Timeout = 5 * time.Second

	c := NewClient(cfg)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestClient_Represent(t *testing.T) {
	conf := 0.98

	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantErr        error
		wantErrContain string
		validateResp   func(*testing.T, *RepresentResponse)
	}{
		{
			name: "successful response with multiple faces",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{FacialArea: FacialArea{X: 10, Y: 20, W: 100, H: 100}, FaceConfidence: &conf},
					{FacialArea: FacialArea{X: 150, Y: 30, W: 90, H: 90}},
				},
			},
			serverStatus: http.StatusOK,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.NotNil(t, resp)
				require.Len(t, resp.Results, 2)
				assert.Equal(t, 10, resp.Results[0].FacialArea.X)
				require.NotNil(t, resp.Results[0].FaceConfidence)
				assert.Equal(t, 0.98, *resp.Results[0].FaceConfidence)
				assert.Nil(t, resp.Results[1].FaceConfidence)
			},
		},
		{
			name:           "empty response",
			serverResponse: RepresentResponse{Results: []RepresentResult{}},
			serverStatus:   http.StatusOK,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.NotNil(t, resp)
				assert.Empty(t, resp.Results)
			},
		},
		{
			name:           "server error 500",
			serverResponse: map[string]string{"error": "internal server error"},
			serverStatus:   http.StatusInternalServerError,
			wantErr:        ErrDeepFaceUnavailable,
			wantErrContain: "status 500",
		},
		{
			name:           "bad request 400",
			serverResponse: map[string]string{"error": "invalid image format"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        ErrInvalidImageFormat,
			wantErrContain: "status 400",
		},
		{
			name:           "malformed JSON",
			serverResponse: "not json",
			serverStatus:   http.StatusOK,
			wantErr:        ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/represent", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req RepresentRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "data:image/jpeg;base64,AAAA", req.Img)
				assert.False(t, req.EnforceDetection)

				w.WriteHeader(tt.serverStatus)
				if s, ok := tt.serverResponse.(string); ok {
					_, _ = w.Write([]byte(s))
					return
				}
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			resp, err := newTestClient(server.URL, 1).Represent(context.Background(), "data:image/jpeg;base64,AAAA")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErrContain != "" {
					assert.Contains(t, err.Error(), tt.wantErrContain)
				}
				return
			}

			require.NoError(t, err)
			tt.validateResp(t, resp)
		})
	}
}

func TestClient_RetryBehavior(t *testing.T) {
	t.Run("retries server errors then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{}})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 3).Represent(context.Background(), "img")
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 3).Represent(context.Background(), "img")
		assert.ErrorIs(t, err, ErrInvalidImageFormat)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after retry count", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 2).Represent(context.Background(), "img")
		assert.ErrorIs(t, err, ErrDeepFaceUnavailable)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(server.URL, 3).Represent(ctx, "img")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{10, maxBackoff},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}
