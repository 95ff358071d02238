package delivery

import (
	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/internal/watermark"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
)

type variantKind string

const (
	variantStatic  variantKind = "static"
	variantDynamic variantKind = "dynamic"
)

// Variant is the per-request protection choice: serve a pre-rendered object
// as-is, or composite a personal watermark on the fly. Selection happens
// once, before any storage or rendering work.
type Variant struct {
	kind variantKind
	key  string
	spec watermark.Spec
}

// StaticVariant serves the object at key without compositing.
func StaticVariant(key string) Variant {
	return Variant{kind: variantStatic, key: key}
}

// DynamicVariant composites the creator's watermark onto the original.
func DynamicVariant(key string, spec watermark.Spec) Variant {
	return Variant{kind: variantDynamic, key: key, spec: spec}
}

// Static reports whether the variant skips the engine.
func (v Variant) Static() bool { return v.kind == variantStatic }

// Key is the object to fetch or sign.
func (v Variant) Key() string { return v.key }

// Spec is the watermark to composite; meaningful only for dynamic variants.
func (v Variant) Spec() watermark.Spec { return v.spec }

// SelectViewVariant picks the object served for gallery browsing. Bronze
// viewers get the pre-rendered watermarked object when one exists; everyone
// else, and bronze images without a static variant, get the original.
func SelectViewVariant(img *models.Image, user tiers.UserFact) Variant {
	if bronzeProtected(user) && img.WatermarkedObjectKey != nil && *img.WatermarkedObjectKey != "" {
		return StaticVariant(*img.WatermarkedObjectKey)
	}
	return StaticVariant(img.ObjectKey)
}

// SelectDownloadVariant picks the protection applied to a download. Higher
// tiers skip compositing entirely: tracking metadata is their only mark.
// Bronze downloads always carry a dynamic personal mark: the pre-rendered
// variant identifies only the tier, so it serves as the compositing base
// rather than a substitute. With watermarking disabled the pre-rendered
// variant is the best remaining protection.
func SelectDownloadVariant(img *models.Image, user tiers.UserFact, spec watermark.Spec, enabled bool) Variant {
	if !bronzeProtected(user) {
		return StaticVariant(img.ObjectKey)
	}
	base := img.ObjectKey
	if img.WatermarkedObjectKey != nil && *img.WatermarkedObjectKey != "" {
		base = *img.WatermarkedObjectKey
	}
	if !enabled {
		return StaticVariant(base)
	}
	return DynamicVariant(base, spec)
}

func bronzeProtected(user tiers.UserFact) bool {
	return !user.IsCreator && !user.Rank.AtLeast(enums.TierSilver)
}
