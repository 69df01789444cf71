package export

import (
	"fmt"

	"github.com/pavelanni/corretor/internal/model"
)

// RGB is a fill or text color.
type RGB struct {
	R, G, B int
}

// Hex renders the color as RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

var (
	colorRowEven     = RGB{0xff, 0xff, 0xff}
	colorRowOdd      = RGB{0xf8, 0xfa, 0xfc}
	colorCorrectEven = RGB{0xe0, 0xf1, 0xe0}
	colorCorrectOdd  = RGB{0xd5, 0xe5, 0xd5}
	colorWrongEven   = RGB{0xff, 0xca, 0xca}
	colorWrongOdd    = RGB{0xf2, 0xc0, 0xc0}

	colorGrid       = RGB{213, 213, 213}
	colorHeaderFill = RGB{241, 245, 249}
	colorHeaderText = RGB{15, 23, 42}
	colorBodyText   = RGB{20, 20, 20}
	colorLegendFill = RGB{248, 250, 252}
)

// Legend swatches use the odd-row shades.
var (
	LegendCorrect = colorCorrectOdd
	LegendWrong   = colorWrongOdd
)

// RowFill is the base background of a body row; row is the 0-based position
// in the projected results.
func RowFill(row int) RGB {
	if row%2 == 0 {
		return colorRowEven
	}
	return colorRowOdd
}

// CellFill is the background of an answer cell. Every styled output and the
// results page use it, so they color cells identically.
func CellFill(tag model.Tag, row int) RGB {
	even := row%2 == 0
	switch tag {
	case model.TagCorrect:
		if even {
			return colorCorrectEven
		}
		return colorCorrectOdd
	case model.TagIncorrect:
		if even {
			return colorWrongEven
		}
		return colorWrongOdd
	}
	return RowFill(row)
}
