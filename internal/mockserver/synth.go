package mockserver

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/csheth/tumorscope/internal/inference"
)

const ensembleMembers = 5

var boundaryColor = color.RGBA{R: 255, G: 255, A: 255}

func classIndex(name string) int {
	for i, c := range inference.Classes {
		if c == name {
			return i
		}
	}
	return -1
}

// synthesize builds a deterministic result for src.
func synthesize(src image.Image, opts Options) (*inference.Result, error) {
	base := resize(src, opts.ImageSize)
	digest := sha256.Sum256(base.Pix)

	class := int(digest[0]) % len(inference.Classes)
	if forced := classIndex(opts.ForceClass); forced >= 0 {
		class = forced
	}

	members := ensemble(digest, class)
	mean, variance := moments(members)
	ensembleClass := argmax(mean)

	overlay, err := encodePNG(explanationOverlay(base, digest))
	if err != nil {
		return nil, err
	}
	counterfactuals := make([]string, 0, opts.Counterfactuals)
	for i := 0; i < opts.Counterfactuals; i++ {
		encoded, err := encodePNG(counterfactual(base, i))
		if err != nil {
			return nil, err
		}
		counterfactuals = append(counterfactuals, encoded)
	}

	return &inference.Result{
		PredictedClass:         inference.Classes[class],
		PredictedClassEnsemble: inference.Classes[ensembleClass],
		Confidence:             mean[class],
		Entropy:                entropy(mean),
		Variance:               average(variance),
		NumCounterfactuals:     len(counterfactuals),
		LimeExplanation:        overlay,
		Counterfactuals:        counterfactuals,
	}, nil
}

func resize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ensemble derives per-member class probabilities from the digest. The chosen class
// gets a logit boost so it wins the mean.
func ensemble(digest [32]byte, class int) [][]float64 {
	n := len(inference.Classes)
	members := make([][]float64, ensembleMembers)
	for m := range members {
		logits := make([]float64, n)
		for k := range logits {
			b := digest[(1+m*n+k)%len(digest)]
			logits[k] = float64(b)/255.0 - 0.5
		}
		logits[class] += 2.5
		members[m] = softmax(logits)
	}
	return members
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		maxLogit = math.Max(maxLogit, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func moments(members [][]float64) (mean, variance []float64) {
	n := len(members[0])
	mean = make([]float64, n)
	variance = make([]float64, n)
	for _, probs := range members {
		for k, p := range probs {
			mean[k] += p
		}
	}
	for k := range mean {
		mean[k] /= float64(len(members))
	}
	for _, probs := range members {
		for k, p := range probs {
			d := p - mean[k]
			variance[k] += d * d
		}
	}
	for k := range variance {
		variance[k] /= float64(len(members))
	}
	return mean, variance
}

// entropy is the Shannon entropy of p in nats.
func entropy(p []float64) float64 {
	var h float64
	for _, v := range p {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	return h
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// explanationOverlay outlines a digest-placed region the way a superpixel boundary
// overlay would.
func explanationOverlay(base *image.RGBA, digest [32]byte) *image.RGBA {
	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, image.Point{}, draw.Src)

	size := base.Bounds().Dx()
	side := size / 3
	if side < 2 {
		return out
	}
	x0 := int(digest[2]) * (size - side) / 255
	y0 := int(digest[3]) * (size - side) / 255
	region := image.Rect(x0, y0, x0+side, y0+side)
	for x := region.Min.X; x < region.Max.X; x++ {
		out.SetRGBA(x, region.Min.Y, boundaryColor)
		out.SetRGBA(x, region.Max.Y-1, boundaryColor)
	}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		out.SetRGBA(region.Min.X, y, boundaryColor)
		out.SetRGBA(region.Max.X-1, y, boundaryColor)
	}
	return out
}

// counterfactual returns the i-th variant of base.
func counterfactual(base *image.RGBA, i int) *image.RGBA {
	b := base.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var c color.RGBA
			switch i % 4 {
			case 0:
				c = base.RGBAAt(b.Max.X-1-x, y)
			case 1:
				c = base.RGBAAt(x, b.Max.Y-1-y)
			case 2:
				c = base.RGBAAt(x, y)
				c = color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: 255}
			default:
				c = base.RGBAAt(x, y)
				c = color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 255}
			}
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
