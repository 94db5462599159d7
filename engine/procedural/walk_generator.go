package procedural

import (
	"math"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/pose"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// stepsPerSecond is the gait cycle rate at Speed = 1.
const stepsPerSecond = 1.35

// Gait amplitudes in radians (or meters for the hip bob) at full intensity and amplitude 1.
const (
	hipYaw       = 0.07
	hipRoll      = 0.03
	hipBob       = 0.03
	legSwing     = 0.5
	kneeBend     = 0.8
	toeLift      = 0.6
	armSwingMax  = 0.35
	armElbowBase = 0.1
	spineLean    = 0.08
	chestLean    = 0.05
	headLean     = 0.08
)

// Convergence rates per body region; feet track fastest so contacts stay crisp.
const (
	walkLambdaHips  = 8
	walkLambdaTorso = 7
	walkLambdaArms  = 9
	walkLambdaLegs  = 12
	walkLambdaFeet  = 14
)

type legNodes struct {
	upper, lower, foot *rig.Node
}

// walkGenerator is the implementation of the WalkGenerator interface.
type walkGenerator struct {
	blender pose.Blender
	cfg     WalkConfig

	// sharedBlender is set when the caller owns the blender and flushes it.
	sharedBlender bool

	leftSign, rightSign float32
	signsSet            bool

	hips, spine, chest, head *rig.Node
	leftLeg, rightLeg        legNodes
	leftArm, rightArm        armNodes
}

// WalkGenerator produces an in-place walk cycle scaled by a locomotion intensity.
// At intensity 0, or while disabled, its offsets are identity: on its own blender every driven
// bone is pulled back toward rest, on a shared blender it leaves the other generators' offsets as they are.
type WalkGenerator interface {
	// Apply advances the walk pose by one frame.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	//   - t: total elapsed seconds
	//   - intensity: locomotion intensity in [0, 1]
	Apply(dt, t, intensity float32)

	// Config returns the current configuration.
	//
	// Returns:
	//   - WalkConfig: the config as stored (already clamped)
	Config() WalkConfig

	// SetConfig applies a partial update and returns the resulting clamped config.
	//
	// Parameters:
	//   - p: the patch; nil fields are left unchanged
	//
	// Returns:
	//   - WalkConfig: the updated config
	SetConfig(p WalkPatch) WalkConfig
}

var _ WalkGenerator = &walkGenerator{}

// NewWalkGenerator resolves the humanoid bones on the rig and captures their rest pose.
//
// Parameters:
//   - r: the rig to drive
//   - options: variadic list of WalkBuilderOption functions to configure the generator
//
// Returns:
//   - WalkGenerator: the generator
func NewWalkGenerator(r rig.Rig, options ...WalkBuilderOption) WalkGenerator {
	g := &walkGenerator{cfg: DefaultWalkConfig()}
	for _, opt := range options {
		opt(g)
	}
	g.cfg = g.cfg.Clamped()

	if r != nil {
		g.hips = r.Humanoid(rig.Hips)
		g.spine = r.Humanoid(rig.Spine)
		g.chest = r.Humanoid(rig.Chest)
		g.head = r.Humanoid(rig.Head)
		g.leftLeg = legNodes{r.Humanoid(rig.LeftUpperLeg), r.Humanoid(rig.LeftLowerLeg), r.Humanoid(rig.LeftFoot)}
		g.rightLeg = legNodes{r.Humanoid(rig.RightUpperLeg), r.Humanoid(rig.RightLowerLeg), r.Humanoid(rig.RightFoot)}
		g.leftArm = armNodes{upper: r.Humanoid(rig.LeftUpperArm), lower: r.Humanoid(rig.LeftLowerArm)}
		g.rightArm = armNodes{upper: r.Humanoid(rig.RightUpperArm), lower: r.Humanoid(rig.RightLowerArm)}
	}

	if g.blender == nil {
		g.blender = pose.NewBlender()
	}
	g.blender.Capture(
		g.hips, g.spine, g.chest, g.head,
		g.leftLeg.upper, g.leftLeg.lower, g.leftLeg.foot,
		g.rightLeg.upper, g.rightLeg.lower, g.rightLeg.foot,
		g.leftArm.upper, g.leftArm.lower, g.rightArm.upper, g.rightArm.lower,
	)

	if !g.signsSet {
		g.leftSign = DetectArmSign(r, SideLeft)
		g.rightSign = DetectArmSign(r, SideRight)
	}
	return g
}

func (g *walkGenerator) Apply(dt, t, intensity float32) {
	c := g.cfg
	var w float32
	if c.Enabled {
		w = common.Clamp(intensity, 0, 1)
	}

	phase := t * c.Speed * 2 * math.Pi * stepsPerSecond
	s := common.Sin(phase)
	co := common.Cos(phase)
	wobble := common.Sin(phase * 2)

	stride := c.Stride * w
	arm := c.ArmSwing * w
	bounce := c.Bounce * w
	lean := c.Lean * w

	bl := g.blender
	bl.AddRotation(g.hips, [3]float32{0, s * hipYaw * stride, s * hipRoll * bounce}, w, walkLambdaHips)
	bl.AddTranslation(g.hips, [3]float32{0, float32(math.Abs(float64(s))) * hipBob * bounce, 0}, w, walkLambdaHips)

	bl.AddRotation(g.spine, [3]float32{spineLean * lean, -s * 0.05 * stride, -s * 0.02 * bounce}, w, walkLambdaTorso)
	bl.AddRotation(g.chest, [3]float32{chestLean * lean, -s * 0.06 * arm, wobble * 0.01 * bounce}, w, walkLambdaTorso)
	bl.AddRotation(g.head, [3]float32{-headLean * lean, s * 0.03 * stride, 0}, w, walkLambdaTorso)

	// Negative X swings a leg forward; the knee only ever bends backward.
	kneeL := max(0, -co) * kneeBend * stride
	kneeR := max(0, co) * kneeBend * stride
	g.applyLeg(g.leftLeg, s*legSwing*stride, kneeL, w)
	g.applyLeg(g.rightLeg, -s*legSwing*stride, kneeR, w)

	// Arms swing opposite to the leg on the same side.
	g.applyArm(g.leftArm, g.leftSign, s*armSwingMax*arm, max(0, s), wobble, arm, w)
	g.applyArm(g.rightArm, g.rightSign, -s*armSwingMax*arm, max(0, -s), wobble, arm, w)

	if !g.sharedBlender {
		bl.Flush(dt, nil)
	}
}

func (g *walkGenerator) applyLeg(l legNodes, swing, knee, w float32) {
	g.blender.AddRotation(l.upper, [3]float32{swing, 0, 0}, w, walkLambdaLegs)
	g.blender.AddRotation(l.lower, [3]float32{knee, 0, 0}, w, walkLambdaLegs)
	g.blender.AddRotation(l.foot, [3]float32{-knee * toeLift, 0, 0}, w, walkLambdaFeet)
}

func (g *walkGenerator) applyArm(a armNodes, sign, swing, forward, wobble, amp, w float32) {
	g.blender.AddRotation(a.upper, [3]float32{0, sign * swing, wobble * 0.03 * amp}, w, walkLambdaArms)
	g.blender.AddRotation(a.lower, [3]float32{0, sign * (armElbowBase + 0.1*forward) * amp, 0}, w, walkLambdaArms)
}

func (g *walkGenerator) Config() WalkConfig {
	return g.cfg
}

func (g *walkGenerator) SetConfig(p WalkPatch) WalkConfig {
	g.cfg = g.cfg.Apply(p)
	return g.cfg
}
