package sim

import (
	"github.com/bascanada/alacod-sub000/vmath"
)

// Buttons is the per-frame input bitmask
type Buttons uint16

const (
	ButtonUp Buttons = 1 << iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonSprint
	ButtonInteract
)

// Input is one player's record for one frame
type Input struct {
	Buttons Buttons    `msgpack:"b" json:"buttons"`
	Aim     vmath.Vec2 `msgpack:"aim" json:"aim"`
}

func (in Input) Has(b Buttons) bool { return in.Buttons&b != 0 }

func (in Input) Moving() bool {
	return in.Buttons&(ButtonUp|ButtonDown|ButtonLeft|ButtonRight) != 0
}

// Direction returns the unit movement vector, y up
func (in Input) Direction(eps vmath.Wide) vmath.Vec2 {
	var d vmath.Vec2
	if in.Has(ButtonRight) {
		d.X = d.X.Add(vmath.One)
	}
	if in.Has(ButtonLeft) {
		d.X = d.X.Sub(vmath.One)
	}
	if in.Has(ButtonUp) {
		d.Y = d.Y.Add(vmath.One)
	}
	if in.Has(ButtonDown) {
		d.Y = d.Y.Sub(vmath.One)
	}
	return d.NormalizeWithin(eps)
}

// inputAt returns the input for a handle, zero when absent
func inputAt(inputs []Input, handle int) Input {
	if handle < 0 || handle >= len(inputs) {
		return Input{}
	}
	return inputs[handle]
}
