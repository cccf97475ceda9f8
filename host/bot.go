package host

import (
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/vmath"
)

var botMoves = []sim.Buttons{
	0,
	sim.ButtonUp,
	sim.ButtonDown,
	sim.ButtonLeft,
	sim.ButtonRight,
	sim.ButtonUp | sim.ButtonLeft,
	sim.ButtonUp | sim.ButtonRight,
	sim.ButtonDown | sim.ButtonLeft,
	sim.ButtonDown | sim.ButtonRight,
}

// Bot is a seeded input script standing in for a human at one handle.
// It holds a direction for a random stretch, sometimes sprinting or
// holding interact.
type Bot struct {
	rng  vmath.Rand
	cur  sim.Input
	hold int
}

func NewBot(seed uint64, player int) *Bot {
	return &Bot{rng: vmath.NewRand(seed ^ (uint64(player)+1)*0xA24BAED4963EE407)}
}

// Next returns the input for the following frame
func (b *Bot) Next() sim.Input {
	if b.hold <= 0 {
		buttons := botMoves[b.rng.Intn(len(botMoves))]
		switch b.rng.Intn(6) {
		case 0:
			buttons |= sim.ButtonSprint
		case 1:
			buttons |= sim.ButtonInteract
		}
		b.cur = sim.Input{Buttons: buttons}
		b.hold = 10 + b.rng.Intn(40)
	}
	b.hold--
	return b.cur
}
