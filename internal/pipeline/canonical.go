package pipeline

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

// CanonicalPolicy picks the identity to search for among the query's
// detections. It is only called with at least one detection.
type CanonicalPolicy func(detections []provider.Detection) provider.Detection

// FirstDetection takes the detector's first face.
func FirstDetection(detections []provider.Detection) provider.Detection {
	return detections[0]
}

// LargestDetection takes the face with the largest bounding box. Ties go to
// the earlier detection.
func LargestDetection(detections []provider.Detection) provider.Detection {
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Box.Area() > best.Box.Area() {
			best = d
		}
	}
	return best
}

// PolicyByName resolves CANONICAL_POLICY values.
func PolicyByName(name string) (CanonicalPolicy, error) {
	switch name {
	case "first", "":
		return FirstDetection, nil
	case "largest":
		return LargestDetection, nil
	default:
		return nil, fmt.Errorf("unknown canonical policy %q (supported: first, largest)", name)
	}
}

// SelectCanonicalDetection applies policy, failing with
// domain.ErrNoFaceDetected when there is nothing to choose from.
func SelectCanonicalDetection(detections []provider.Detection, policy CanonicalPolicy) (provider.Detection, error) {
	if len(detections) == 0 {
		return provider.Detection{}, domain.ErrNoFaceDetected
	}
	if policy == nil {
		policy = FirstDetection
	}
	return policy(detections), nil
}
