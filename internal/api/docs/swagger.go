package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// FaceDetection represents a detected face with a normalized box
type FaceDetection struct {
	ID         string  `json:"id" example:"face-0"`
	X          float64 `json:"x" example:"0.31"`
	Y          float64 `json:"y" example:"0.18"`
	Width      float64 `json:"width" example:"0.22"`
	Height     float64 `json:"height" example:"0.29"`
	Confidence float64 `json:"confidence" example:"0.97"`
	Label      string  `json:"label" example:"face"`
}

// PersonDetection represents the person coverage record
type PersonDetection struct {
	ID       string  `json:"id" example:"person-0"`
	Coverage float64 `json:"coverage" example:"0.42"`
	Label    string  `json:"label" example:"person"`
}

// ProcessFrameResponse represents the response for frame processing
type ProcessFrameResponse struct {
	Detections     []FaceDetection `json:"detections"`
	ProcessedImage string          `json:"processed_image" example:"data:image/jpeg;base64,/9j/4AAQSkZJRg..."`
}

// HelloWorldResponse represents the liveness probe response
type HelloWorldResponse struct {
	Hello string `json:"Hello" example:"World"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"0.1.0"`
}

// PoolStatsData represents a model session pool snapshot
type PoolStatsData struct {
	Name            string `json:"name" example:"yunet"`
	Size            int    `json:"pool_size" example:"2"`
	InUse           int    `json:"sessions_in_use" example:"1"`
	TotalAcquired   int64  `json:"total_acquired" example:"1520"`
	TotalReleased   int64  `json:"total_released" example:"1519"`
	AcquireFailures int64  `json:"acquire_failures" example:"0"`
}

// MetricsResponse wraps pool snapshots
type MetricsResponse struct {
	Pools []PoolStatsData `json:"pools"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error" example:"No image provided"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Spotlight Frame API",
		Version:     "v1.0.0",
		Description: "Face detection and background desaturation for single video frames",
		Host:        "localhost:8080",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// GET /hello-world - Liveness probe
		endpoint.New(
			endpoint.GET,
			"/hello-world",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HelloWorldResponse{}, "200", "Service is up"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /detect-faces - Detect faces in a frame
		endpoint.New(
			endpoint.POST,
			"/detect-faces",
			endpoint.WithTags("Frames"),
			endpoint.WithSummary("Detect faces"),
			endpoint.WithDescription("Upload a frame as the multipart field 'image'. Returns one record per face in detector order, or an empty array."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]FaceDetection{}, "200", "Faces detected"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "No image provided"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Request Entity Too Large"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Error: "decode image: image: unknown format"}, "500", "Internal Server Error"),
			}),
		),

		// POST /process-frame - Grayscale background, person in color
		endpoint.New(
			endpoint.POST,
			"/process-frame",
			endpoint.WithTags("Frames"),
			endpoint.WithSummary("Desaturate the background of a frame"),
			endpoint.WithDescription("Upload a frame as the multipart field 'image'. Detected people stay in color over a grayscale background. The person record, when coverage exceeds 1%, precedes the face records."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("mode", parameter.Query, parameter.WithDescription("Processing mode (default: grayscale). Also accepted as a form field.")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ProcessFrameResponse{}, "200", "Frame processed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "No image provided"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Request Entity Too Large"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Error: "segment person: model crashed"}, "500", "Internal Server Error"),
			}),
		),

		// GET /health - Health check
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Health check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is healthy"),
			}),
		),

		// GET /metrics - Session pool metrics
		endpoint.New(
			endpoint.GET,
			"/metrics",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Model session pool metrics"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MetricsResponse{}, "200", "Pool snapshots"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
