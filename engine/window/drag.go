package window

// dragTracker turns left-button press/move/release into per-event deltas.
// Positions are screen coordinates.
type dragTracker struct {
	active bool
	lastX  float32
	lastY  float32
}

func (d *dragTracker) press(x, y float32) {
	d.active = true
	d.lastX = x
	d.lastY = y
}

// move returns the delta since the previous event. ok is false when no drag is active.
func (d *dragTracker) move(x, y float32) (dx, dy float32, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	dx = x - d.lastX
	dy = y - d.lastY
	d.lastX = x
	d.lastY = y
	return dx, dy, true
}

// release ends the drag and reports whether one was active.
func (d *dragTracker) release() bool {
	was := d.active
	d.active = false
	return was
}
