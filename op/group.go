package op

import "github.com/autd3/autd3/tx"

// Group wraps an Operation and restricts its effect to a subset of
// devices: after the wrapped operation packs a full frame, Group masks
// num_bodies and zeroes the bodies of every device not in the
// selection, so disabled devices never observe the write.
type Group struct {
	Inner    Operation
	Selected []bool // per-device; true = included
}

func (g *Group) Init() { g.Inner.Init() }

func (g *Group) Pack(d *tx.TxDatagram) error {
	if err := g.Inner.Pack(d); err != nil {
		return err
	}

	maxSelected := 0
	for i, sel := range g.Selected {
		if i >= d.NumBodies {
			break
		}
		if sel {
			maxSelected = i + 1
		} else {
			body := d.Body(i)
			for w := 0; w < body.Len(); w++ {
				body.Set(w, 0)
			}
		}
	}
	if maxSelected < d.NumBodies {
		d.NumBodies = maxSelected
	}
	return nil
}

func (g *Group) IsFinished() bool { return g.Inner.IsFinished() }
