package enums

import "fmt"

// WatermarkPosition resolves to pixel offsets relative to the base image.
type WatermarkPosition string

const (
	// WatermarkPositionCorner places the overlay a fixed margin from the
	// bottom-right edge.
	WatermarkPositionCorner WatermarkPosition = "corner"
	WatermarkPositionCenter WatermarkPosition = "center"
	// WatermarkPositionDiagonal tiles the overlay rotated across the full
	// image, used for stronger anti-leak protection.
	WatermarkPositionDiagonal WatermarkPosition = "diagonal"
	// WatermarkPositionCustom uses explicit percentage offsets.
	WatermarkPositionCustom WatermarkPosition = "custom"
)

var validWatermarkPositions = []WatermarkPosition{
	WatermarkPositionCorner,
	WatermarkPositionCenter,
	WatermarkPositionDiagonal,
	WatermarkPositionCustom,
}

func (p WatermarkPosition) String() string {
	return string(p)
}

func (p WatermarkPosition) IsValid() bool {
	for _, candidate := range validWatermarkPositions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseWatermarkPosition converts raw input into a WatermarkPosition.
func ParseWatermarkPosition(value string) (WatermarkPosition, error) {
	for _, candidate := range validWatermarkPositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid watermark position %q", value)
}
