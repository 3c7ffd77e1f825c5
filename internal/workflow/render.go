package workflow

import (
	"fmt"

	"github.com/csheth/tumorscope/internal/inference"
)

// GalleryItem is one counterfactual in display order.
type GalleryItem struct {
	Ordinal int
	Label   string
	Image   string
}

// ShowMetrics reports whether the primary metrics render.
func ShowMetrics(r *inference.Result) bool {
	return r != nil
}

// ShowExplanation reports whether the explanation overlay renders.
func ShowExplanation(r *inference.Result) bool {
	return r != nil && !r.NoTumor() && r.LimeExplanation != ""
}

// ShowCounterfactuals reports whether the counterfactual gallery renders.
func ShowCounterfactuals(r *inference.Result) bool {
	return r != nil && !r.NoTumor() && len(r.Counterfactuals) > 0
}

// Gallery lists the counterfactuals to render, or nil when the gallery is hidden.
func Gallery(r *inference.Result) []GalleryItem {
	if !ShowCounterfactuals(r) {
		return nil
	}
	items := make([]GalleryItem, 0, len(r.Counterfactuals))
	for i, img := range r.Counterfactuals {
		items = append(items, GalleryItem{
			Ordinal: i + 1,
			Label:   fmt.Sprintf("Counterfactual %d", i+1),
			Image:   img,
		})
	}
	return items
}

// FormatConfidence renders a [0,1] confidence as a percentage with one decimal.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// FormatMetric renders an uncertainty metric with four decimals.
func FormatMetric(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
