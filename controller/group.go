package controller

import "github.com/autd3/autd3/op"

// GroupEntry pairs a device selection with the operation that should
// run against exactly that subset.
type GroupEntry struct {
	Selected []bool
	Op       op.Operation
}

// SendGroup runs every entry in turn, each wrapped in an op.Group so it
// only ever touches its own selected devices. Entries run sequentially
// because a Controller pumps one operation at a time.
func (c *Controller) SendGroup(entries []GroupEntry) error {
	for _, e := range entries {
		g := &op.Group{Inner: e.Op, Selected: e.Selected}
		if err := c.Send(g); err != nil {
			return err
		}
	}
	return nil
}
