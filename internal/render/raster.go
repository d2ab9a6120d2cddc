package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// supersample is the oversampling factor used for shapes
const supersample = 3

// Rasterize paints a scene onto a new image. Shapes are drawn oversampled
// and scaled down; text is drawn at the final size.
func Rasterize(scene Scene) (*image.RGBA, error) {
	w, h := int(math.Ceil(scene.Width)), int(math.Ceil(scene.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid scene size %vx%v", scene.Width, scene.Height)
	}

	large := image.NewRGBA(image.Rect(0, 0, w*supersample, h*supersample))
	for _, p := range scene.Primitives {
		if p.Kind == KindText {
			continue
		}
		paintShape(large, scale(p, supersample))
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(img, img.Bounds(), large, large.Bounds(), draw.Src, nil)

	for _, p := range scene.Primitives {
		if p.Kind == KindText {
			drawText(img, p)
		}
	}
	return img, nil
}

// EncodePNG rasterizes a scene and writes it as PNG
func EncodePNG(w io.Writer, scene Scene) error {
	img, err := Rasterize(scene)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func scale(p Primitive, k float64) Primitive {
	pts := make([]Point, len(p.Points))
	for i, pt := range p.Points {
		pts[i] = Point{pt.X * k, pt.Y * k}
	}
	p.Points = pts
	p.Radius *= k
	p.Width *= k
	return p
}

func paintShape(img *image.RGBA, p Primitive) {
	c := p.Color.NRGBA()
	switch p.Kind {
	case KindRect:
		if len(p.Points) == 2 {
			fillRect(img, p.Points[0], p.Points[1], c)
		}
	case KindLine, KindPolyline:
		for i := 1; i < len(p.Points); i++ {
			strokeSegment(img, p.Points[i-1], p.Points[i], math.Max(p.Width, 1), c)
		}
	case KindPolygon:
		fillPolygon(img, p.Points, c)
	case KindCircle:
		if len(p.Points) == 1 {
			paintCircle(img, p.Points[0], p.Radius, p.Width, p.Filled, c)
		}
	}
}

func fillRect(img *image.RGBA, a, b Point, c color.NRGBA) {
	r := image.Rect(int(a.X), int(a.Y), int(math.Ceil(b.X)), int(math.Ceil(b.Y))).Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			blend(img, x, y, c)
		}
	}
}

// strokeSegment paints every pixel whose centre lies within width/2 of the segment
func strokeSegment(img *image.RGBA, a, b Point, width float64, c color.NRGBA) {
	half := width / 2
	r := image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-half)), int(math.Floor(math.Min(a.Y, b.Y)-half)),
		int(math.Ceil(math.Max(a.X, b.X)+half)), int(math.Ceil(math.Max(a.Y, b.Y)+half)),
	).Intersect(img.Bounds())

	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			t := 0.0
			if lenSq > 0 {
				t = math.Max(0, math.Min(1, ((px-a.X)*dx+(py-a.Y)*dy)/lenSq))
			}
			if math.Hypot(px-(a.X+t*dx), py-(a.Y+t*dy)) <= half {
				blend(img, x, y, c)
			}
		}
	}
}

// fillPolygon fills using the even-odd rule, one scanline per pixel row
func fillPolygon(img *image.RGBA, pts []Point, c color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	b := img.Bounds()
	y0 := int(math.Max(math.Floor(minY), float64(b.Min.Y)))
	y1 := int(math.Min(math.Ceil(maxY), float64(b.Max.Y)))

	xs := make([]float64, 0, len(pts))
	for y := y0; y < y1; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			p, q := pts[i], pts[(i+1)%len(pts)]
			if (p.Y <= sy && q.Y > sy) || (q.Y <= sy && p.Y > sy) {
				xs = append(xs, p.X+(sy-p.Y)/(q.Y-p.Y)*(q.X-p.X))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			from := int(math.Max(math.Round(xs[i]), float64(b.Min.X)))
			to := int(math.Min(math.Round(xs[i+1]), float64(b.Max.X)))
			for x := from; x < to; x++ {
				blend(img, x, y, c)
			}
		}
	}
}

func paintCircle(img *image.RGBA, centre Point, radius, width float64, filled bool, c color.NRGBA) {
	outer := radius + width/2
	inner := radius - width/2
	if filled {
		outer, inner = radius, -1
	}
	r := image.Rect(
		int(math.Floor(centre.X-outer)), int(math.Floor(centre.Y-outer)),
		int(math.Ceil(centre.X+outer)), int(math.Ceil(centre.Y+outer)),
	).Intersect(img.Bounds())

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-centre.X, float64(y)+0.5-centre.Y)
			if d <= outer && d >= inner {
				blend(img, x, y, c)
			}
		}
	}
}

func drawText(img *image.RGBA, p Primitive) {
	if len(p.Points) == 0 || p.Text == "" {
		return
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, p.Text).Ceil()

	x := int(p.Points[0].X)
	switch p.Align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(p.Color.NRGBA()),
		Face: face,
		Dot:  fixed.P(x, int(p.Points[0].Y)),
	}
	d.DrawString(p.Text)
}

// blend composites c over the pixel at (x, y)
func blend(img *image.RGBA, x, y int, c color.NRGBA) {
	if c.A == 0xff {
		img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		return
	}
	dst := img.RGBAAt(x, y)
	a := uint32(c.A)
	inv := 255 - a
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((uint32(c.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(c.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(c.B)*a + uint32(dst.B)*inv) / 255),
		A: uint8(a + uint32(dst.A)*inv/255),
	})
}
