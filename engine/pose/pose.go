// Package pose holds the rest-pose blender shared by the procedural generators.
//
// Every effect is expressed as an offset from a rest snapshot taken once at construction.
// The blended target is never written directly: the bone glides toward it with
// alpha = 1 - e^(-lambda*dt), so weight changes and uneven frame times never produce a jump.
//
// Several generators can stage offsets on the same node within a frame (AddRotation,
// AddTranslation). Flush composes them in call order as rest * o1 * o2 ... and writes each node
// once. Nodes a clip is writing this frame take the composed offset relative to the clip pose
// instead of the rest pose.
package pose

import (
	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// Rest is the captured local transform of one node.
type Rest struct {
	Rotation [4]float32
	Position [3]float32
}

// layer is the offset staged on one node for the current frame.
type layer struct {
	rotation    [4]float32
	position    [3]float32
	hasRotation bool
	hasPosition bool
	rotLambda   float32
	posLambda   float32
}

// overlay tracks an offset applied on top of a pose someone else writes.
// base is the pose the offset was applied to; written is what Flush left in the node.
// When the node still holds written, nobody overwrote it and base is reused.
type overlay struct {
	rotBase, rotWritten, rotApplied [4]float32
	posBase, posWritten, posApplied [3]float32
	rotValid, posValid              bool
}

// blender is the implementation of the Blender interface.
type blender struct {
	rest     map[*rig.Node]Rest
	pending  map[*rig.Node]*layer
	order    []*rig.Node
	overlays map[*rig.Node]*overlay
}

// Blender drives rig nodes toward rest-relative targets.
type Blender interface {
	// Capture snapshots the current local transform of each node as its rest pose.
	// Nodes that were already captured keep their original snapshot. Nil nodes are ignored.
	//
	// Parameters:
	//   - nodes: the nodes to capture
	Capture(nodes ...*rig.Node)

	// Rest returns the captured rest transform of a node.
	//
	// Parameters:
	//   - n: the node
	//
	// Returns:
	//   - Rest: the snapshot
	//   - bool: false if the node was never captured
	Rest(n *rig.Node) (Rest, bool)

	// Rotate blends toward rest * offset(euler) by weight and damps the node toward that target.
	//
	// Parameters:
	//   - n: the node; nil is a no-op
	//   - euler: the local offset as XYZ Euler angles in radians
	//   - weight: blend amount in [0, 1]; 0 targets the exact rest rotation
	//   - lambda: convergence rate per second for this call site
	//   - dt: elapsed seconds since the previous frame
	Rotate(n *rig.Node, euler [3]float32, weight, lambda, dt float32)

	// RotateQuat is Rotate with the offset given as a quaternion.
	RotateQuat(n *rig.Node, offset [4]float32, weight, lambda, dt float32)

	// Translate blends toward rest + offset by weight and damps the node toward that target.
	//
	// Parameters:
	//   - n: the node; nil is a no-op
	//   - offset: the local position delta
	//   - weight: blend amount in [0, 1]; 0 targets the exact rest position
	//   - lambda: convergence rate per second for this call site
	//   - dt: elapsed seconds since the previous frame
	Translate(n *rig.Node, offset [3]float32, weight, lambda, dt float32)

	// AddRotation stages a weighted Euler offset for the next Flush. Offsets staged on the same
	// node compose in call order; the fastest lambda staged for the node wins.
	//
	// Parameters:
	//   - n: the node; nil is a no-op
	//   - euler: the local offset as XYZ Euler angles in radians
	//   - weight: blend amount in [0, 1]
	//   - lambda: convergence rate per second
	AddRotation(n *rig.Node, euler [3]float32, weight, lambda float32)

	// AddTranslation stages a weighted position offset for the next Flush. Offsets add up.
	//
	// Parameters:
	//   - n: the node; nil is a no-op
	//   - offset: the local position delta
	//   - weight: blend amount in [0, 1]
	//   - lambda: convergence rate per second
	AddTranslation(n *rig.Node, offset [3]float32, weight, lambda float32)

	// Flush writes every staged node once and clears the stage.
	// Nodes for which driven returns true are treated as clip-driven: the damped offset is
	// applied on top of the pose the clip wrote this frame and never pulls toward rest.
	// Every other node damps toward rest * offset.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	//   - driven: reports clip-driven nodes; nil means none
	Flush(dt float32, driven func(n *rig.Node) bool)
}

var _ Blender = &blender{}

// NewBlender creates a Blender and captures the rest pose of the given nodes.
//
// Parameters:
//   - nodes: nodes to capture immediately; nil entries are skipped
//
// Returns:
//   - Blender: the blender
func NewBlender(nodes ...*rig.Node) Blender {
	b := &blender{
		rest:     make(map[*rig.Node]Rest, len(nodes)),
		pending:  make(map[*rig.Node]*layer),
		overlays: make(map[*rig.Node]*overlay),
	}
	b.Capture(nodes...)
	return b
}

func (b *blender) Capture(nodes ...*rig.Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, ok := b.rest[n]; ok {
			continue
		}
		b.rest[n] = Rest{Rotation: n.Rotation, Position: n.Position}
	}
}

func (b *blender) Rest(n *rig.Node) (Rest, bool) {
	r, ok := b.rest[n]
	return r, ok
}

func (b *blender) Rotate(n *rig.Node, euler [3]float32, weight, lambda, dt float32) {
	if n == nil {
		return
	}
	b.RotateQuat(n, common.QuatFromEuler(euler[0], euler[1], euler[2]), weight, lambda, dt)
}

func (b *blender) RotateQuat(n *rig.Node, offset [4]float32, weight, lambda, dt float32) {
	if n == nil {
		return
	}
	rest := b.restOf(n)
	w := common.Clamp(weight, 0, 1)
	target := common.QuatSlerp(rest.Rotation, common.QuatMul(rest.Rotation, offset), w)
	n.Rotation = common.QuatSlerp(n.Rotation, target, common.DampAlpha(lambda, dt))
}

func (b *blender) Translate(n *rig.Node, offset [3]float32, weight, lambda, dt float32) {
	if n == nil {
		return
	}
	rest := b.restOf(n)
	w := common.Clamp(weight, 0, 1)
	target := common.Vec3Lerp(rest.Position, common.Vec3Add(rest.Position, offset), w)
	n.Position = common.Vec3Lerp(n.Position, target, common.DampAlpha(lambda, dt))
}

// restOf returns the snapshot for n, capturing it on first sight for nodes that were not
// resolved when the blender was created.
func (b *blender) restOf(n *rig.Node) Rest {
	r, ok := b.rest[n]
	if !ok {
		r = Rest{Rotation: n.Rotation, Position: n.Position}
		b.rest[n] = r
	}
	return r
}

func (b *blender) stage(n *rig.Node) *layer {
	l, ok := b.pending[n]
	if !ok {
		l = &layer{rotation: common.QuatIdentity()}
		b.pending[n] = l
		b.order = append(b.order, n)
	}
	return l
}

func (b *blender) AddRotation(n *rig.Node, euler [3]float32, weight, lambda float32) {
	if n == nil {
		return
	}
	b.restOf(n)
	offset := common.QuatFromEuler(euler[0], euler[1], euler[2])
	l := b.stage(n)
	l.rotation = common.QuatMul(l.rotation, common.QuatSlerp(common.QuatIdentity(), offset, common.Clamp(weight, 0, 1)))
	l.hasRotation = true
	l.rotLambda = max(l.rotLambda, lambda)
}

func (b *blender) AddTranslation(n *rig.Node, offset [3]float32, weight, lambda float32) {
	if n == nil {
		return
	}
	b.restOf(n)
	w := common.Clamp(weight, 0, 1)
	l := b.stage(n)
	l.position = common.Vec3Add(l.position, [3]float32{offset[0] * w, offset[1] * w, offset[2] * w})
	l.hasPosition = true
	l.posLambda = max(l.posLambda, lambda)
}

func (b *blender) Flush(dt float32, driven func(n *rig.Node) bool) {
	for _, n := range b.order {
		l := b.pending[n]
		if driven != nil && driven(n) {
			b.flushOverlay(n, l, dt)
		} else {
			b.flushRest(n, l, dt)
		}
	}
	clear(b.pending)
	b.order = b.order[:0]
}

func (b *blender) flushRest(n *rig.Node, l *layer, dt float32) {
	rest := b.rest[n]
	if l.hasRotation {
		target := common.QuatMul(rest.Rotation, l.rotation)
		n.Rotation = common.QuatSlerp(n.Rotation, target, common.DampAlpha(l.rotLambda, dt))
	}
	if l.hasPosition {
		target := common.Vec3Add(rest.Position, l.position)
		n.Position = common.Vec3Lerp(n.Position, target, common.DampAlpha(l.posLambda, dt))
	}
	// Leaving overlay mode; the next overlay starts from the clip pose with no offset.
	delete(b.overlays, n)
}

func (b *blender) flushOverlay(n *rig.Node, l *layer, dt float32) {
	o, ok := b.overlays[n]
	if !ok {
		o = &overlay{rotApplied: common.QuatIdentity()}
		b.overlays[n] = o
	}
	if l.hasRotation {
		if !o.rotValid || n.Rotation != o.rotWritten {
			o.rotBase = n.Rotation
		}
		o.rotApplied = common.QuatSlerp(o.rotApplied, l.rotation, common.DampAlpha(l.rotLambda, dt))
		n.Rotation = common.QuatMul(o.rotBase, o.rotApplied)
		o.rotWritten = n.Rotation
		o.rotValid = true
	}
	if l.hasPosition {
		if !o.posValid || n.Position != o.posWritten {
			o.posBase = n.Position
		}
		o.posApplied = common.Vec3Lerp(o.posApplied, l.position, common.DampAlpha(l.posLambda, dt))
		n.Position = common.Vec3Add(o.posBase, o.posApplied)
		o.posWritten = n.Position
		o.posValid = true
	}
}
