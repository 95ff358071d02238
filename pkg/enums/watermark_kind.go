package enums

import "fmt"

// WatermarkKind selects the overlay source: rendered text or a stored badge image.
type WatermarkKind string

const (
	WatermarkKindText  WatermarkKind = "text"
	WatermarkKindImage WatermarkKind = "image"
)

var validWatermarkKinds = []WatermarkKind{
	WatermarkKindText,
	WatermarkKindImage,
}

func (k WatermarkKind) String() string {
	return string(k)
}

func (k WatermarkKind) IsValid() bool {
	for _, candidate := range validWatermarkKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseWatermarkKind converts raw input into a WatermarkKind.
func ParseWatermarkKind(value string) (WatermarkKind, error) {
	for _, candidate := range validWatermarkKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid watermark kind %q", value)
}
