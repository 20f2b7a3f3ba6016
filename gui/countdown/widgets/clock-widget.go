package widgets

import (
	"image"
	"image/color"
	"math"

	"github.com/d093w1z/gio/f32"
	"github.com/d093w1z/gio/layout"
	"github.com/d093w1z/gio/op/clip"
	"github.com/d093w1z/gio/op/paint"
	"github.com/d093w1z/gio/text"
	"github.com/d093w1z/gio/unit"
	"github.com/d093w1z/gio/widget"
	"github.com/d093w1z/gio/widget/material"
	"golang.org/x/exp/shiny/materialdesign/icons"

	countdown "github.com/d093w1z/countdown/api"
)

var (
	ringTrack  = color.NRGBA{R: 0x3D, G: 0x3D, B: 0x3D, A: 0xFF}
	ringStart  = color.NRGBA{R: 0xF1, G: 0x1D, B: 0x28, A: 0x00}
	ringEnd    = color.NRGBA{R: 0xFF, G: 0xA1, B: 0x2C, A: 0xFF}
	background = color.NRGBA{R: 0x01, G: 0x01, B: 0x01, A: 0xFF}
	foreground = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// StatusLabel names the state a snapshot is in.
func StatusLabel(s countdown.Snapshot) string {
	switch {
	case s.Running:
		return "RUNNING"
	case s.Remaining < s.Total:
		return "PAUSED"
	default:
		return "READY"
	}
}

// lerpColor interpolates linearly between c1 and c2.
func lerpColor(c1, c2 color.NRGBA, t float32) color.NRGBA {
	return color.NRGBA{
		R: uint8(float32(c1.R) + t*(float32(c2.R)-float32(c1.R))),
		G: uint8(float32(c1.G) + t*(float32(c2.G)-float32(c1.G))),
		B: uint8(float32(c1.B) + t*(float32(c2.B)-float32(c1.B))),
		A: uint8(float32(c1.A) + t*(float32(c2.A)-float32(c1.A))),
	}
}

// ringSegments is how many of segments a ring at progress fills.
func ringSegments(progress float32, segments int) int {
	if progress <= 0 {
		return 0
	}
	if progress >= 1 {
		return segments
	}
	return int(float32(segments) * progress)
}

// DrawGradientRing fills the ring clockwise from the top up to
// progress, shading each segment from startColor towards endColor.
func DrawGradientRing(gtx layout.Context, progress float32, startColor, endColor color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(200))
	center := float32(size) / 2
	outerRadius := center
	innerRadius := outerRadius - 10 // thickness

	segments := 60
	maxSeg := ringSegments(progress, segments)
	if maxSeg == 0 {
		return layout.Dimensions{Size: image.Pt(size, size)}
	}

	segmentAngle := float32(2 * math.Pi / float64(segments))

	for i := 0; i < maxSeg; i++ {
		startAngle := float32(i)*segmentAngle - math.Pi/2 // Start from top
		endAngle := startAngle + segmentAngle

		// Interpolate only within the drawn arc.
		t := float32(0)
		if maxSeg > 1 {
			t = float32(i) / float32(maxSeg-1)
		}
		c := lerpColor(startColor, endColor, t)

		startCos, startSin := math.Cos(float64(startAngle)), math.Sin(float64(startAngle))
		endCos, endSin := math.Cos(float64(endAngle)), math.Sin(float64(endAngle))

		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(f32.Pt(center+outerRadius*float32(startCos), center+outerRadius*float32(startSin)))

		// Quadratic control points approximate each arc.
		midAngle := startAngle + segmentAngle/2
		midCos, midSin := math.Cos(float64(midAngle)), math.Sin(float64(midAngle))
		outerControl := outerRadius / float32(math.Cos(float64(segmentAngle/4)))
		p.QuadTo(
			f32.Pt(center+outerControl*float32(midCos), center+outerControl*float32(midSin)),
			f32.Pt(center+outerRadius*float32(endCos), center+outerRadius*float32(endSin)),
		)

		p.LineTo(f32.Pt(center+innerRadius*float32(endCos), center+innerRadius*float32(endSin)))

		innerControl := innerRadius / float32(math.Cos(float64(segmentAngle/4)))
		p.QuadTo(
			f32.Pt(center+innerControl*float32(midCos), center+innerControl*float32(midSin)),
			f32.Pt(center+innerRadius*float32(startCos), center+innerRadius*float32(startSin)),
		)
		p.Close()

		paint.FillShape(gtx.Ops, c, clip.Outline{Path: p.End()}.Op())
	}

	return layout.Dimensions{Size: image.Pt(size, size)}
}

// Timer draws the progress ring with the formatted remaining time and
// the timer's state in its centre.
func Timer(th *material.Theme, s countdown.Snapshot) layout.FlexChild {
	return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		return layout.Stack{Alignment: layout.Center}.Layout(gtx,
			layout.Stacked(func(gtx layout.Context) layout.Dimensions {
				size := gtx.Dp(unit.Dp(200))
				rect := image.Rect(0, 0, size, size)

				outer := clip.Ellipse{Min: rect.Min, Max: rect.Max}.Op(gtx.Ops)
				paint.FillShape(gtx.Ops, ringTrack, outer)

				DrawGradientRing(gtx, float32(s.Progress()), ringStart, ringEnd)

				// Inner circle (cutout effect)
				innerRect := rect.Inset(gtx.Dp(unit.Dp(10)))
				inner := clip.Ellipse{Min: innerRect.Min, Max: innerRect.Max}.Op(gtx.Ops)
				paint.FillShape(gtx.Ops, background, inner)
				return layout.Dimensions{Size: rect.Size()}
			}),
			layout.Stacked(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						icon, err := widget.NewIcon(icons.ImageTimer)
						if err != nil {
							return layout.Dimensions{}
						}
						return icon.Layout(gtx, foreground)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						m := material.H3(th, s.Display)
						m.Alignment = text.Middle
						m.Color = foreground
						return m.Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						m := material.Caption(th, StatusLabel(s))
						m.Alignment = text.Middle
						m.Color = ringEnd
						return m.Layout(gtx)
					}),
				)
			}))
	})
}

// Background fills the whole window with the rounded backdrop.
func Background(gtx layout.Context) {
	rect := clip.UniformRRect(
		image.Rect(0, 0, gtx.Constraints.Max.X, gtx.Constraints.Max.Y),
		8,
	)
	paint.FillShape(gtx.Ops, background, rect.Op(gtx.Ops))
}
