package style

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
)

type filterFunc func(img image.Image) *image.NRGBA

var filters = map[string]filterFunc{
	Ghibli:      ghibli,
	Cartoon:     cartoon,
	Sketch:      sketch,
	OilPainting: oilPainting,
	Watercolor:  watercolor,
	Anime:       anime,
}

// HasFilter reports whether name is a built-in filter.
func HasFilter(name string) bool {
	_, ok := filters[name]
	return ok
}

func ghibli(img image.Image) *image.NRGBA {
	smooth := imaging.Blur(img, 1.5)
	smooth = imaging.AdjustFunc(smooth, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(float64(c.R)*1.2 + 10),
			G: clamp(float64(c.G)*1.2 + 10),
			B: clamp(float64(c.B)*1.2 + 10),
			A: c.A,
		}
	})
	smooth = imaging.AdjustSaturation(smooth, 30)
	return imaging.Blur(smooth, 0.5)
}

func cartoon(img image.Image) *image.NRGBA {
	mask := edgeMask(img, 7)
	smooth := imaging.Blur(posterize(imaging.Clone(img), 4), 1.2)
	darkenEdges(smooth, mask)
	return smooth
}

func sketch(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	blurred := imaging.Blur(imaging.Invert(gray), 20)
	out := imaging.Clone(gray)

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*out.Stride + x*4
			g := float64(gray.Pix[y*gray.Stride+x*4])
			d := 255 - float64(blurred.Pix[y*blurred.Stride+x*4])
			var v uint8
			if d > 0 {
				v = clamp(g * 256 / d)
			}
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
		}
	}
	return out
}

const (
	oilRadius = 3
	oilLevels = 20
)

func oilPainting(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w < 2*oilRadius+1 || h < 2*oilRadius+1 {
		return ghibli(img)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	parallelRows(h, func(y0, y1 int) {
		var count [oilLevels]int
		var sumR, sumG, sumB [oilLevels]int
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				count = [oilLevels]int{}
				sumR, sumG, sumB = [oilLevels]int{}, [oilLevels]int{}, [oilLevels]int{}
				for dy := -oilRadius; dy <= oilRadius; dy++ {
					yy := y + dy
					if yy < 0 || yy >= h {
						continue
					}
					for dx := -oilRadius; dx <= oilRadius; dx++ {
						xx := x + dx
						if xx < 0 || xx >= w {
							continue
						}
						i := yy*src.Stride + xx*4
						r, g, b := int(src.Pix[i]), int(src.Pix[i+1]), int(src.Pix[i+2])
						lvl := (r + g + b) * (oilLevels - 1) / (3 * 255)
						count[lvl]++
						sumR[lvl] += r
						sumG[lvl] += g
						sumB[lvl] += b
					}
				}
				best := 0
				for l := 1; l < oilLevels; l++ {
					if count[l] > count[best] {
						best = l
					}
				}
				o := y*dst.Stride + x*4
				n := count[best]
				dst.Pix[o] = uint8(sumR[best] / n)
				dst.Pix[o+1] = uint8(sumG[best] / n)
				dst.Pix[o+2] = uint8(sumB[best] / n)
				dst.Pix[o+3] = src.Pix[y*src.Stride+x*4+3]
			}
		}
	})
	return dst
}

func watercolor(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < 3; i++ {
		out = imaging.Blur(out, 2)
	}
	return imaging.Blur(posterize(out, 5), 1)
}

func anime(img image.Image) *image.NRGBA {
	mask := edgeMask(img, 7)
	smooth := posterize(imaging.Blur(img, 2), 3)
	darkenEdges(smooth, mask)
	return smooth
}

// edgeMask marks pixels darker than their local mean by more than c, the same rule
// an adaptive mean threshold uses.
func edgeMask(img image.Image, c int) []bool {
	gray := imaging.Grayscale(img)
	mean := imaging.Blur(gray, 2)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := int(gray.Pix[y*gray.Stride+x*4])
			m := int(mean.Pix[y*mean.Stride+x*4])
			mask[y*w+x] = g <= m-c
		}
	}
	return mask
}

func darkenEdges(img *image.NRGBA, mask []bool) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask[y*w+x] {
				i := y*img.Stride + x*4
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0, 0, 0
			}
		}
	}
}

// posterize snaps every channel to one of levels evenly spaced values, in place.
func posterize(img *image.NRGBA, levels int) *image.NRGBA {
	if levels < 2 {
		levels = 2
	}
	step := 255.0 / float64(levels-1)
	var lut [256]uint8
	for v := range lut {
		lut[v] = clamp(float64(int(float64(v)/step+0.5)) * step)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = lut[row[i]]
			row[i+1] = lut[row[i+1]]
			row[i+2] = lut[row[i+2]]
		}
	}
	return img
}

func parallelRows(h int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	chunk := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += chunk {
		y1 := y0 + chunk
		if y1 > h {
			y1 = h
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
