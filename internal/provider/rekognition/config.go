package rekognition

// Config holds configuration for the AWS Rekognition face backend
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// JPEGQuality is the quality used to encode frames before upload
	JPEGQuality int
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:      "us-east-1",
		JPEGQuality: 95,
	}
}
