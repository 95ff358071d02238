package watermark

import (
	"fmt"
	"math"

	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

const (
	minOpacity = 0.0
	maxOpacity = 1.0
	minScale   = 0.1
	maxScale   = 10.0
	minOffset  = -50.0
	maxOffset  = 50.0
)

// Spec describes one watermark overlay. The engine assumes a normalized
// spec; clamping and rounding happen here, at the configuration boundary.
type Spec struct {
	Kind         enums.WatermarkKind
	Position     enums.WatermarkPosition
	TextTemplate string
	Opacity      float64
	Scale        float64
	OffsetX      float64
	OffsetY      float64
	Enabled      bool
}

// DefaultSpec is the protection applied for creators who never configured a
// watermark: a diagonal text mark at half opacity.
func DefaultSpec() Spec {
	return Spec{
		Kind:     enums.WatermarkKindText,
		Position: enums.WatermarkPositionDiagonal,
		Opacity:  0.5,
		Scale:    1,
		Enabled:  true,
	}
}

// Validate rejects specs whose enums are unknown. Numeric fields are never
// rejected; they are clamped by Normalize instead.
func (s Spec) Validate() error {
	if !s.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid watermark kind %q", s.Kind))
	}
	if !s.Position.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid watermark position %q", s.Position))
	}
	return nil
}

// Normalize clamps opacity to [0,1], scale to [0.1,10] and percentage
// offsets to [-50,50], rounding offsets to one decimal place.
func (s Spec) Normalize() Spec {
	s.Opacity = clamp(s.Opacity, minOpacity, maxOpacity)
	s.Scale = clamp(s.Scale, minScale, maxScale)
	s.OffsetX = roundTenth(clamp(s.OffsetX, minOffset, maxOffset))
	s.OffsetY = roundTenth(clamp(s.OffsetY, minOffset, maxOffset))
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
