package rekognition

// Config holds configuration for the AWS Rekognition face counter
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MinConfidence discards detections below this confidence (0-100)
	MinConfidence float64

	// MaxImageSide bounds the longest side of the uploaded JPEG so it stays
	// under the 5MB inline image limit
	MaxImageSide int
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 90,
		MaxImageSide:  2048,
	}
}
