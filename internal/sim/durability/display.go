package durability

import (
	"fmt"
	"math"

	"voxelcraft.ai/durability/internal/sim/model"
)

type RGB struct {
	R, G, B uint8
}

type TooltipLine struct {
	Text  string
	Color RGB
}

// Fraction is durability/max in [0,1].
func Fraction(st model.Durability) float64 {
	if st.MaxDurability <= 0 {
		return 0
	}
	f := float64(st.Durability) / float64(st.MaxDurability)
	return math.Max(0, math.Min(1, f))
}

// ShowBar reports whether a wear bar should be drawn; full items have none.
func ShowBar(st model.Durability) bool { return Fraction(st) != 1 }

// Tooltip builds the inventory tooltip line. The colour goes from red (worn)
// to green (fresh).
func Tooltip(st model.Durability) TooltipLine {
	return TooltipLine{
		Text:  fmt.Sprintf("Durability: %d/%d", st.Durability, st.MaxDurability),
		Color: WearColor(Fraction(st)),
	}
}

func WearColor(fraction float64) RGB {
	return hsbToRGB(0.33*fraction, 1, 0.8)
}

func hsbToRGB(hue, sat, bri float64) RGB {
	if sat == 0 {
		v := uint8(bri*255 + 0.5)
		return RGB{v, v, v}
	}
	h := (hue - math.Floor(hue)) * 6
	f := h - math.Floor(h)
	p := bri * (1 - sat)
	q := bri * (1 - sat*f)
	t := bri * (1 - sat*(1-f))
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = bri, t, p
	case 1:
		r, g, b = q, bri, p
	case 2:
		r, g, b = p, bri, t
	case 3:
		r, g, b = p, q, bri
	case 4:
		r, g, b = t, p, bri
	default:
		r, g, b = bri, p, q
	}
	return RGB{uint8(r*255 + 0.5), uint8(g*255 + 0.5), uint8(b*255 + 0.5)}
}
