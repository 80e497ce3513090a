package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/countrydata/country-service/internal/country"
)

const (
	imgWidth  = 800
	imgHeight = 500
)

// Generator renders the post-refresh summary image and hands it to the
// artifact store.
type Generator struct {
	store ArtifactStore
}

func NewGenerator(store ArtifactStore) *Generator {
	return &Generator{store: store}
}

// Generate draws the summary (total count, top-5 GDP list, timestamp) and
// persists it as a PNG.
func (g *Generator) Generate(ctx context.Context, total int64, top []*country.Country, asOf time.Time) error {
	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	black := color.RGBA{A: 255}
	blue := color.RGBA{B: 200, A: 255}
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}

	drawText(img, 20, 30, black, "Country Summary Report")
	drawText(img, 20, 80, black, fmt.Sprintf("Total Countries: %d", total))
	drawText(img, 20, 130, black, "Top 5 Countries by Estimated GDP:")

	y := 170
	if len(top) == 0 {
		drawText(img, 40, y, gray, "No GDP data available.")
	} else {
		for _, c := range top {
			var gdp float64
			if c.EstimatedGDP != nil {
				gdp = *c.EstimatedGDP
			}
			drawText(img, 40, y, blue, fmt.Sprintf("- %s: %.2f", c.Name, gdp))
			y += 30
		}
	}

	drawText(img, 20, 410, black, "Last Refresh: "+asOf.Format(time.RFC3339))

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode summary image: %w", err)
	}
	return g.store.Save(ctx, buf.Bytes())
}

func drawText(img *image.RGBA, x, y int, c color.Color, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
