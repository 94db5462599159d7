package motion

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/animator"
	"github.com/Carmen-Shannon/oxy-motion/engine/metrics"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/pose"
	"github.com/Carmen-Shannon/oxy-motion/engine/procedural"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// Name keywords used to auto-pick embedded clips.
var (
	walkKeywords = []string{"walk", "run", "locomotion", "move"}
	idleKeywords = []string{"idle", "breath", "stand", "wait"}
)

// walkActiveIntensity is the intensity below which the procedural walk stops being ticked
// once the settle window has passed.
const walkActiveIntensity = 0.01

// neverWalked seeds lastWalkAt so the settle window is closed until the first walk.
const neverWalked float32 = -1e9

// coordinator is the implementation of the Coordinator interface.
type coordinator struct {
	mu *sync.Mutex

	name             string
	logger           *slog.Logger
	metrics          *metrics.Manager
	settings         Settings
	idleCfg          procedural.IdleConfig
	walkCfg          procedural.WalkConfig
	clipSpeed        float32
	onActionFinished func(clip *model.AnimationClip)

	rig     rig.Rig
	hips    *rig.Node
	blender pose.Blender
	idle    procedural.IdleGenerator
	walk    procedural.WalkGenerator
	player  animator.ClipPlayer

	embeddedIdle, embeddedWalk     *model.AnimationClip
	lastLoaded                     *model.AnimationClip
	idleClip, walkClip, actionClip *model.AnimationClip
	actionLoop                     bool

	now                      float32
	actionStarted            bool
	actionUntil              float32
	dragging, dragMoved      bool
	lastDragMove, lastWalkAt float32
	moveIntensity            float32
	locomotion               Locomotion
	source                   AnimationSource
	activeClip               *model.AnimationClip
	activeLoop               bool
	switchLocked, dragLocked bool
	switchLockUntil          float32
	switchLockY, dragLockY   float32
}

// Coordinator is the motion engine's per-avatar state machine. Each frame it turns movement
// signals into a locomotion state, picks which animation source drives the rig (an action clip,
// a walk or idle clip, or the procedural generators), crossfades between clips, and pins the
// hip height across clip switches and while the avatar is being dragged.
//
// All methods are safe for concurrent use. Nothing in the per-frame path returns an error:
// missing bones and unplayable clips degrade to skipped effects.
type Coordinator interface {
	// Name returns the coordinator's identifier, used as the metrics label.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Attach binds the coordinator to a rig, replacing any previously attached rig. It detaches
	// first, so clips assigned against the previous rig are dropped. Rest poses are captured and arm signs detected here. Embedded clips are scanned for
	// walk-like and idle-like names to use when the matching slot is empty.
	//
	// Parameters:
	//   - r: the rig to drive
	//   - embedded: clips bundled with the rig's asset, may be nil
	Attach(r rig.Rig, embedded []*model.AnimationClip)

	// AttachModel builds a rig from a loaded model's skeleton and attaches it along with the
	// model's embedded clips.
	//
	// Parameters:
	//   - m: the model
	//   - options: rig options, e.g. a humanoid bone mapping
	//
	// Returns:
	//   - rig.Rig: the rig now attached
	//   - error: rig.ErrNilSkeleton if the model has no skeleton
	AttachModel(m model.Model, options ...rig.RigBuilderOption) (rig.Rig, error)

	// Detach drops the rig, its generators and the compiled-track cache, and empties every clip
	// slot along with the last imported clip.
	Detach()

	// Rig returns the attached rig.
	//
	// Returns:
	//   - rig.Rig: the rig, or nil when detached
	Rig() rig.Rig

	// ImportClip records a clip as the last loaded clip. It stays outside every slot until
	// promoted with AssignLastLoadedToSlot.
	//
	// Parameters:
	//   - clip: the clip
	//
	// Returns:
	//   - bool: whether the clip is playable on the attached rig (or structurally playable when detached)
	ImportClip(clip *model.AnimationClip) bool

	// AssignLastLoadedToSlot promotes the last loaded clip into a slot, replacing the slot's clip.
	//
	// Parameters:
	//   - slot: SlotIdle or SlotWalk
	//
	// Returns:
	//   - bool: false if no clip was waiting
	AssignLastLoadedToSlot(slot Slot) bool

	// ClearSlot empties a slot.
	//
	// Parameters:
	//   - slot: SlotIdle or SlotWalk
	ClearSlot(slot Slot)

	// SlotClip returns the clip held by a slot.
	//
	// Parameters:
	//   - slot: SlotIdle or SlotWalk
	//
	// Returns:
	//   - *model.AnimationClip: the clip, or nil
	SlotClip(slot Slot) *model.AnimationClip

	// SetActionClip puts a clip in the action role, overriding every other source. nil clears it.
	// A non-looping action clip clears itself when it reaches its end.
	//
	// Parameters:
	//   - clip: the clip, or nil
	//   - loop: whether the clip wraps at its end
	SetActionClip(clip *model.AnimationClip, loop bool)

	// StartAction opens a scripted movement window (approach, retreat) at the last ticked time.
	// Locomotion is WALK while the window is open.
	//
	// Parameters:
	//   - duration: window length in seconds
	StartAction(duration float32)

	// StopAction closes the scripted movement window immediately.
	StopAction()

	// Tick advances the coordinator by one frame and writes the resulting pose into the rig.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous tick
	//   - t: monotonic time in seconds
	//   - sig: the frame's movement signals
	//
	// Returns:
	//   - MotionState: the state after this tick
	Tick(dt, t float32, sig Signals) MotionState

	// MotionState returns the state after the last tick.
	//
	// Returns:
	//   - MotionState: the state
	MotionState() MotionState

	// MoveIntensity returns the current locomotion intensity.
	//
	// Returns:
	//   - float32: intensity in [0, 1]
	MoveIntensity() float32

	// SetIdleConfig applies a partial idle config update.
	//
	// Parameters:
	//   - p: the patch
	//
	// Returns:
	//   - procedural.IdleConfig: the resulting clamped config
	SetIdleConfig(p procedural.IdlePatch) procedural.IdleConfig

	// SetWalkConfig applies a partial walk config update.
	//
	// Parameters:
	//   - p: the patch
	//
	// Returns:
	//   - procedural.WalkConfig: the resulting clamped config
	SetWalkConfig(p procedural.WalkPatch) procedural.WalkConfig

	// IdleConfig returns the current idle config.
	IdleConfig() procedural.IdleConfig

	// WalkConfig returns the current walk config.
	WalkConfig() procedural.WalkConfig

	// SetClipSpeed sets the clip playback rate multiplier, clamped to [procedural.MinSpeed, procedural.MaxSpeed].
	//
	// Parameters:
	//   - speed: the multiplier
	SetClipSpeed(speed float32)
}

var _ Coordinator = &coordinator{}

// NewCoordinator creates a detached Coordinator. Call Attach before ticking it.
//
// Parameters:
//   - options: variadic list of CoordinatorBuilderOption functions to configure the coordinator
//
// Returns:
//   - Coordinator: the coordinator
func NewCoordinator(options ...CoordinatorBuilderOption) Coordinator {
	c := &coordinator{
		mu:         &sync.Mutex{},
		name:       "avatar",
		logger:     slog.Default(),
		settings:   DefaultSettings(),
		idleCfg:    procedural.DefaultIdleConfig(),
		walkCfg:    procedural.DefaultWalkConfig(),
		clipSpeed:  1,
		lastWalkAt: neverWalked,
	}
	for _, opt := range options {
		opt(c)
	}
	c.settings = c.settings.Clamped()
	c.idleCfg = c.idleCfg.Clamped()
	c.walkCfg = c.walkCfg.Clamped()
	return c
}

func (c *coordinator) Name() string {
	return c.name
}

func (c *coordinator) Attach(r rig.Rig, embedded []*model.AnimationClip) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detach()
	if r == nil || !r.Valid() {
		c.logger.Warn("attach skipped, rig is not loaded", "avatar", c.name)
		return
	}

	c.rig = r
	c.hips = r.Humanoid(rig.Hips)
	c.player = animator.NewClipPlayer(r, animator.WithSpeed(c.clipSpeed))

	// Idle and walk stage offsets on one blender; tick flushes it once per frame.
	c.blender = pose.NewBlender()
	c.idle = procedural.NewIdleGenerator(r,
		procedural.WithIdleConfig(c.idleCfg),
		procedural.WithIdleBlender(c.blender),
	)
	left, right := c.idle.ArmSigns()
	c.walk = procedural.NewWalkGenerator(r,
		procedural.WithWalkConfig(c.walkCfg),
		procedural.WithWalkArmSigns(left, right),
		procedural.WithWalkBlender(c.blender),
	)

	for _, clip := range embedded {
		if c.embeddedWalk == nil && clip.NameContains(walkKeywords...) && c.player.Playable(clip) {
			c.embeddedWalk = clip
			continue
		}
		if c.embeddedIdle == nil && clip.NameContains(idleKeywords...) && c.player.Playable(clip) {
			c.embeddedIdle = clip
		}
	}

	c.metrics.RecordArmSign(c.name, procedural.SideLeft.String(), left)
	c.metrics.RecordArmSign(c.name, procedural.SideRight.String(), right)
	c.metrics.SetState(c.name, SourceNone.String())

	if missing := r.MissingHumanoid(); len(missing) > 0 {
		c.logger.Debug("humanoid bones missing", "avatar", c.name, "bones", missing)
	}
	c.logger.Info("rig attached",
		"avatar", c.name,
		"rig", r.Name(),
		"nodes", len(r.Nodes()),
		"armSignLeft", left,
		"armSignRight", right,
		"embeddedIdle", clipName(c.embeddedIdle),
		"embeddedWalk", clipName(c.embeddedWalk),
	)
}

func (c *coordinator) AttachModel(m model.Model, options ...rig.RigBuilderOption) (rig.Rig, error) {
	var skel *model.Skeleton
	var clips []*model.AnimationClip
	if m != nil {
		skel = m.Skeleton()
		clips = m.Animations()
		options = append([]rig.RigBuilderOption{rig.WithName(m.Name())}, options...)
	}
	r, err := rig.NewRig(skel, options...)
	if err != nil {
		return nil, err
	}
	c.Attach(r, clips)
	return r, nil
}

func (c *coordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rig != nil {
		c.logger.Info("rig detached", "avatar", c.name, "rig", c.rig.Name())
	}
	c.detach()
}

func (c *coordinator) detach() {
	if c.player != nil {
		c.player.Reset()
	}
	c.rig = nil
	c.hips = nil
	c.blender = nil
	c.idle = nil
	c.walk = nil
	c.player = nil
	c.embeddedIdle = nil
	c.embeddedWalk = nil
	c.lastLoaded = nil
	c.idleClip = nil
	c.walkClip = nil
	c.actionClip = nil
	c.actionLoop = false
	c.source = SourceNone
	c.activeClip = nil
	c.activeLoop = false
	c.switchLocked = false
	c.dragLocked = false
}

func (c *coordinator) Rig() rig.Rig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rig
}

func (c *coordinator) ImportClip(clip *model.AnimationClip) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastLoaded = clip
	playable := clip.Playable()
	if c.player != nil {
		playable = c.player.Playable(clip)
	}
	if !playable {
		c.logger.Debug("imported clip does not bind to the rig", "avatar", c.name, "clip", clipName(clip))
	}
	return playable
}

func (c *coordinator) AssignLastLoadedToSlot(slot Slot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastLoaded == nil {
		return false
	}
	clip := c.lastLoaded
	c.lastLoaded = nil
	switch slot {
	case SlotWalk:
		c.walkClip = clip
	default:
		c.idleClip = clip
	}
	c.logger.Info("clip assigned", "avatar", c.name, "slot", slot.String(), "clip", clipName(clip))
	return true
}

func (c *coordinator) ClearSlot(slot Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch slot {
	case SlotWalk:
		c.walkClip = nil
	default:
		c.idleClip = nil
	}
	c.logger.Info("slot cleared", "avatar", c.name, "slot", slot.String())
}

func (c *coordinator) SlotClip(slot Slot) *model.AnimationClip {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot == SlotWalk {
		return c.walkClip
	}
	return c.idleClip
}

func (c *coordinator) SetActionClip(clip *model.AnimationClip, loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actionClip = clip
	c.actionLoop = loop
}

func (c *coordinator) StartAction(duration float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actionStarted = true
	c.actionUntil = c.now + max(0, duration)
}

func (c *coordinator) StopAction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actionStarted = false
}

func (c *coordinator) Tick(dt, t float32, sig Signals) MotionState {
	start := time.Now()
	finished, state := c.tick(dt, t, sig)
	if finished != nil && c.onActionFinished != nil {
		c.onActionFinished(finished)
	}
	c.metrics.RecordTick(c.name, time.Since(start))
	return state
}

// tick runs one frame under the lock. It returns the action clip that completed this frame, if
// any, so the callback can run after the lock is released.
func (c *coordinator) tick(dt, t float32, sig Signals) (*model.AnimationClip, MotionState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	c.now = t
	dragMoving := c.updateSignals(dt, t, sig)

	if c.rig == nil || !c.rig.Valid() {
		return nil, c.state()
	}

	source, clip, loop := c.selectSource(dragMoving)
	if source != c.source || clip != c.activeClip || (clip != nil && loop != c.activeLoop) {
		c.switchTo(source, clip, loop, t)
	}

	var finished *model.AnimationClip
	if c.player.PrepareFrame(dt) && c.source == SourceAction && !c.activeLoop {
		finished = c.actionClip
		c.actionClip = nil
		c.logger.Debug("action clip finished", "avatar", c.name, "clip", clipName(finished))
	}

	c.idle.Apply(dt, t, c.activeClip != nil)

	if c.source == SourceNone && c.walkActive(t) {
		c.walk.Apply(dt, t, c.moveIntensity)
	}
	c.blender.Flush(dt, c.player.Drives)

	c.applyHipLock(t)
	c.metrics.SetMoveIntensity(c.name, c.moveIntensity)
	return finished, c.state()
}

// updateSignals folds the frame's signals into drag state, locomotion and move intensity.
// It returns whether the avatar is being drag-moved right now.
func (c *coordinator) updateSignals(dt, t float32, sig Signals) bool {
	if sig.Dragging && !c.dragging {
		c.dragMoved = false
		if c.hips != nil {
			c.dragLocked = true
			c.dragLockY = c.hips.Position[1]
			c.metrics.RecordHipLock(c.name, metrics.LockDrag)
		}
	}
	if !sig.Dragging && c.dragging {
		c.dragLocked = false
	}
	c.dragging = sig.Dragging

	if sig.Dragging && abs(sig.DragDelta) > c.settings.DragMoveThreshold {
		c.dragMoved = true
		c.lastDragMove = t
	}
	dragMoving := sig.Dragging && c.dragMoved && t-c.lastDragMove <= c.settings.DragRecentSeconds

	actionOpen := c.actionStarted && t < c.actionUntil
	if c.actionStarted && !actionOpen {
		c.actionStarted = false
	}

	var target float32
	if actionOpen || dragMoving {
		target = 1
	}
	c.moveIntensity = common.Clamp(c.moveIntensity+(target-c.moveIntensity)*common.DampAlpha(c.settings.IntensityRate, dt), 0, 1)

	if actionOpen {
		c.locomotion = LocomotionWalk
		c.lastWalkAt = t
	} else {
		c.locomotion = LocomotionIdle
	}
	return dragMoving
}

// selectSource applies the clip priority: action, then the walk chain while walking, then the
// idle chain, then none.
func (c *coordinator) selectSource(dragMoving bool) (AnimationSource, *model.AnimationClip, bool) {
	if c.playable(c.actionClip) {
		return SourceAction, c.actionClip, c.actionLoop
	}

	if c.locomotion == LocomotionWalk {
		if clip := common.Coalesce(c.playableOrNil(c.walkClip), c.playableOrNil(c.embeddedWalk)); clip != nil {
			return SourceWalk, clip, true
		}
		// Being dragged with no walk clip should not look like walking.
		if dragMoving && c.playable(c.idleClip) {
			return SourceIdle, c.idleClip, true
		}
		return SourceNone, nil, false
	}

	if clip := common.Coalesce(c.playableOrNil(c.idleClip), c.playableOrNil(c.embeddedIdle)); clip != nil {
		return SourceIdle, clip, true
	}
	return SourceNone, nil, false
}

func (c *coordinator) playable(clip *model.AnimationClip) bool {
	return clip != nil && c.player.Playable(clip)
}

func (c *coordinator) playableOrNil(clip *model.AnimationClip) *model.AnimationClip {
	if c.playable(clip) {
		return clip
	}
	return nil
}

func (c *coordinator) switchTo(source AnimationSource, clip *model.AnimationClip, loop bool, t float32) {
	prevSource, prevClip := c.source, c.activeClip

	if clip == nil {
		c.player.Stop()
	} else {
		c.player.BlendTo(clip, loop, c.settings.CrossfadeSeconds)
	}

	if c.hips != nil && (prevClip != nil || clip != nil) {
		c.switchLocked = true
		c.switchLockY = c.hips.Position[1]
		c.switchLockUntil = t + c.settings.SwitchLockSeconds
		c.metrics.RecordHipLock(c.name, metrics.LockSwitch)
	}

	c.source = source
	c.activeClip = clip
	c.activeLoop = loop
	c.metrics.RecordSwitch(c.name, source.String())
	c.metrics.SetState(c.name, source.String())
	c.logger.Debug("animation source switched",
		"avatar", c.name,
		"from", prevSource.String(),
		"to", source.String(),
		"fromClip", clipName(prevClip),
		"toClip", clipName(clip),
	)
}

func (c *coordinator) walkActive(t float32) bool {
	return c.locomotion == LocomotionWalk ||
		t-c.lastWalkAt <= c.settings.WalkSettleSeconds ||
		c.moveIntensity > walkActiveIntensity
}

// applyHipLock pins the hip's local height. The drag lock wins while both are engaged.
func (c *coordinator) applyHipLock(t float32) {
	if c.hips == nil {
		return
	}
	if c.switchLocked && t >= c.switchLockUntil {
		c.switchLocked = false
	}
	switch {
	case c.dragLocked:
		c.hips.Position[1] = c.dragLockY
	case c.switchLocked:
		c.hips.Position[1] = c.switchLockY
	}
}

func (c *coordinator) state() MotionState {
	return MotionState{
		Animation:     c.source,
		Locomotion:    c.locomotion,
		MoveIntensity: c.moveIntensity,
		Clip:          clipName(c.activeClip),
		Blending:      c.player != nil && c.player.IsBlending(),
		HipLocked:     c.dragLocked || c.switchLocked,
	}
}

func (c *coordinator) MotionState() MotionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *coordinator) MoveIntensity() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveIntensity
}

func (c *coordinator) SetIdleConfig(p procedural.IdlePatch) procedural.IdleConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idleCfg = c.idleCfg.Apply(p)
	if c.idle != nil {
		c.idle.SetConfig(p)
	}
	c.logger.Debug("idle config updated", "avatar", c.name, "config", c.idleCfg)
	return c.idleCfg
}

func (c *coordinator) SetWalkConfig(p procedural.WalkPatch) procedural.WalkConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.walkCfg = c.walkCfg.Apply(p)
	if c.walk != nil {
		c.walk.SetConfig(p)
	}
	c.logger.Debug("walk config updated", "avatar", c.name, "config", c.walkCfg)
	return c.walkCfg
}

func (c *coordinator) IdleConfig() procedural.IdleConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idleCfg
}

func (c *coordinator) WalkConfig() procedural.WalkConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.walkCfg
}

func (c *coordinator) SetClipSpeed(speed float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clipSpeed = common.Clamp(speed, procedural.MinSpeed, procedural.MaxSpeed)
	if c.player != nil {
		c.player.SetAnimationSpeed(c.clipSpeed)
	}
}

func clipName(clip *model.AnimationClip) string {
	if clip == nil {
		return ""
	}
	return clip.Name
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
