package widgets

import (
	"image/color"

	"github.com/d093w1z/gio/layout"
	"github.com/d093w1z/gio/unit"
	"github.com/d093w1z/gio/widget"
	"github.com/d093w1z/gio/widget/material"
)

var (
	buttonBackground = color.NRGBA{R: 0x3D, G: 0x3D, B: 0x3D, A: 0xFF}
	buttonDisabled   = color.NRGBA{R: 0x1F, G: 0x1F, B: 0x1F, A: 0xFF}
)

// Button lays out an icon button and calls onClick when it was clicked
// since the previous frame. A disabled button swallows clicks.
func Button(th *material.Theme, inset unit.Dp, label string, icon []byte, btnWidget *widget.Clickable, enabled bool, onClick func()) layout.FlexChild {
	return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		btnIcon, err := widget.NewIcon(icon)
		if err != nil {
			return layout.Dimensions{}
		}
		btn := material.IconButton(th, btnWidget, btnIcon, label)
		btn.Background = buttonBackground
		if !enabled {
			btn.Background = buttonDisabled
		}
		btn.Inset = layout.UniformInset(inset)
		if btnWidget.Clicked(gtx) && enabled {
			onClick()
		}
		return btn.Layout(gtx)
	})
}
