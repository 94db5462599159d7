package procedural

import (
	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/pose"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// Idle wave frequencies in rad/s and the lag between the two breathing waves,
// so chest expansion and hip rise are not in lockstep.
const (
	breathRate     = 2.1
	swayRate       = 0.9
	nodRate        = 0.7
	breathPhaseLag = 0.6
)

// Relaxed-arm pose offsets in radians, reached at ArmsDown = 1 / ElbowBend = 1.
const (
	shoulderDrop = 0.12
	upperArmDrop = 1.2
	relaxedElbow = 0.15
	elbowBendMax = 0.6
)

// Convergence rates per body region.
const (
	idleLambdaHips  = 4
	idleLambdaTorso = 5
	idleLambdaHead  = 6
	idleLambdaArms  = 8
)

type armNodes struct {
	shoulder, upper, lower *rig.Node
}

// idleGenerator is the implementation of the IdleGenerator interface.
type idleGenerator struct {
	blender pose.Blender
	cfg     IdleConfig

	// sharedBlender is set when the caller owns the blender and flushes it.
	sharedBlender bool

	leftSign, rightSign float32
	signsSet            bool

	hips, spine, chest, upperChest, neck, head *rig.Node
	left, right                                armNodes
}

// IdleGenerator produces a continuous idle pose: breathing, sway, a micro-nod and a relaxed
// arms-down correction, all expressed as offsets from the rest pose captured at construction.
type IdleGenerator interface {
	// Apply advances the idle pose by one frame.
	// No-op while disabled, or while an external animation plays and overlay is off; in that
	// case bones keep whatever the clip left them with.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	//   - t: total elapsed seconds
	//   - hasExternalAnimation: true while a clip is driving the rig
	Apply(dt, t float32, hasExternalAnimation bool)

	// Config returns the current configuration.
	//
	// Returns:
	//   - IdleConfig: the config as stored (already clamped)
	Config() IdleConfig

	// SetConfig applies a partial update and returns the resulting clamped config.
	//
	// Parameters:
	//   - p: the patch; nil fields are left unchanged
	//
	// Returns:
	//   - IdleConfig: the updated config
	SetConfig(p IdlePatch) IdleConfig

	// ArmSigns returns the rotation signs that lower each arm on this rig.
	//
	// Returns:
	//   - left: sign for the left arm
	//   - right: sign for the right arm
	ArmSigns() (left, right float32)
}

var _ IdleGenerator = &idleGenerator{}

// NewIdleGenerator resolves the humanoid bones on the rig, captures their rest pose and detects
// the arm-down rotation signs. Missing bones are tolerated; their effects are skipped.
//
// Parameters:
//   - r: the rig to drive
//   - options: variadic list of IdleBuilderOption functions to configure the generator
//
// Returns:
//   - IdleGenerator: the generator
func NewIdleGenerator(r rig.Rig, options ...IdleBuilderOption) IdleGenerator {
	g := &idleGenerator{cfg: DefaultIdleConfig()}
	for _, opt := range options {
		opt(g)
	}
	g.cfg = g.cfg.Clamped()

	if r != nil {
		g.hips = r.Humanoid(rig.Hips)
		g.spine = r.Humanoid(rig.Spine)
		g.chest = r.Humanoid(rig.Chest)
		g.upperChest = r.Humanoid(rig.UpperChest)
		g.neck = r.Humanoid(rig.Neck)
		g.head = r.Humanoid(rig.Head)
		g.left = armNodes{r.Humanoid(rig.LeftShoulder), r.Humanoid(rig.LeftUpperArm), r.Humanoid(rig.LeftLowerArm)}
		g.right = armNodes{r.Humanoid(rig.RightShoulder), r.Humanoid(rig.RightUpperArm), r.Humanoid(rig.RightLowerArm)}
	}

	if g.blender == nil {
		g.blender = pose.NewBlender()
	}
	g.blender.Capture(
		g.hips, g.spine, g.chest, g.upperChest, g.neck, g.head,
		g.left.shoulder, g.left.upper, g.left.lower,
		g.right.shoulder, g.right.upper, g.right.lower,
	)

	if !g.signsSet {
		g.leftSign = DetectArmSign(r, SideLeft)
		g.rightSign = DetectArmSign(r, SideRight)
	}
	return g
}

func (g *idleGenerator) Apply(dt, t float32, hasExternalAnimation bool) {
	c := g.cfg
	if !c.Enabled || (hasExternalAnimation && !c.OverlayOnAnimation) {
		return
	}

	w := c.Strength
	b, s := c.Breathe, c.Sway
	tt := t * c.Speed

	breath := common.Sin(tt * breathRate)
	breathLag := common.Sin(tt*breathRate - breathPhaseLag)
	sway := common.Sin(tt * swayRate)
	swaySlow := common.Sin(tt*swayRate*0.5 + 1.3)
	nod := common.Sin(tt*nodRate + 0.4)

	bl := g.blender
	bl.AddRotation(g.hips, [3]float32{0, sway * 0.035 * s, swaySlow * 0.012 * s}, w, idleLambdaHips)
	bl.AddTranslation(g.hips, [3]float32{0, breathLag * 0.004 * b, 0}, w, idleLambdaHips)

	// Spine counter-rotates the hip sway to keep the head over the feet.
	bl.AddRotation(g.spine, [3]float32{breath * 0.012 * b, -sway * 0.022 * s, -swaySlow * 0.01 * s}, w, idleLambdaTorso)
	bl.AddRotation(g.chest, [3]float32{-breath * 0.02 * b, 0, sway * 0.008 * s}, w, idleLambdaTorso)
	bl.AddRotation(g.upperChest, [3]float32{-breath * 0.015 * b, 0, sway * 0.006 * s}, w, idleLambdaTorso)

	bl.AddRotation(g.neck, [3]float32{breathLag * 0.01 * b, sway * 0.015 * s, 0}, w, idleLambdaHead)
	bl.AddRotation(g.head, [3]float32{nod*0.02*s + breath*0.006*b, -sway * 0.02 * s, -swaySlow * 0.015 * s}, w, idleLambdaHead)

	g.applyArm(g.left, g.leftSign, breath)
	g.applyArm(g.right, g.rightSign, breath)

	if !g.sharedBlender {
		bl.Flush(dt, func(*rig.Node) bool { return hasExternalAnimation })
	}
}

func (g *idleGenerator) applyArm(a armNodes, sign, breath float32) {
	c := g.cfg
	armW := c.Strength * c.ArmsDown

	g.blender.AddRotation(a.shoulder, [3]float32{0, 0, sign * shoulderDrop}, armW, idleLambdaArms)
	g.blender.AddRotation(a.upper, [3]float32{0, 0, sign * (upperArmDrop + breath*0.02*c.Breathe)}, armW, idleLambdaArms)

	bend := sign * (relaxedElbow*c.ArmsDown + elbowBendMax*c.ElbowBend)
	g.blender.AddRotation(a.lower, [3]float32{0, bend, 0}, c.Strength, idleLambdaArms)
}

func (g *idleGenerator) Config() IdleConfig {
	return g.cfg
}

func (g *idleGenerator) SetConfig(p IdlePatch) IdleConfig {
	g.cfg = g.cfg.Apply(p)
	return g.cfg
}

func (g *idleGenerator) ArmSigns() (left, right float32) {
	return g.leftSign, g.rightSign
}
