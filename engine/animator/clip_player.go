package animator

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// playback holds the playback state of one clip: time, speed, looping and the hip re-anchor offset.
type playback struct {
	track     *track
	time      float32
	loop      bool
	hipOffset [3]float32
}

// advance moves playback forward by dt seconds of clip time.
// Looping clips wrap; one-shot clips clamp to the last frame and report completion.
func (p *playback) advance(dt float32) (ended bool) {
	duration := p.track.clip.Duration
	p.time += dt
	if p.loop {
		if duration > 0 && (p.time >= duration || p.time < 0) {
			p.time = float32(math.Mod(float64(p.time), float64(duration)))
			if p.time < 0 {
				p.time += duration
			}
		}
		return false
	}
	if p.time >= duration {
		p.time = duration
		return true
	}
	if p.time < 0 {
		p.time = 0
	}
	return false
}

func (p *playback) pose(i int, hips *rig.Node, base nodePose) nodePose {
	bc := p.track.channels[i]
	out := bc.sample(p.time, base)
	if bc.node == hips && len(bc.channel.PositionKeys) > 0 {
		out.position = common.Vec3Add(out.position, p.hipOffset)
	}
	return out
}

// clipPlayer is the implementation of the ClipPlayer interface.
type clipPlayer struct {
	mu *sync.Mutex

	rig  rig.Rig
	hips *rig.Node

	cache map[*model.AnimationClip]*track

	current, target *playback
	snapshot        map[*rig.Node]nodePose

	speed                       float32
	blending, ended             bool
	blendDuration, blendElapsed float32
}

// ClipPlayer plays pre-authored clips against a rig on the CPU, writing sampled local transforms
// straight into the rig nodes.
//
// Clips are compiled into tracks on first use and cached by clip pointer until Reset, so
// replaying a clip never re-binds its channels. Every clip that starts playing is re-anchored
// so its first hip translation key lands on the hips' current position.
type ClipPlayer interface {
	// Play starts a clip immediately with no transition, replacing whatever was playing.
	//
	// Parameters:
	//   - clip: the clip to play
	//   - loop: whether the clip wraps at its end
	//
	// Returns:
	//   - bool: false if the clip does not bind to the rig; playback is unchanged in that case
	Play(clip *model.AnimationClip, loop bool) bool

	// BlendTo crossfades from the current clip to a new one over the given duration.
	// When nothing is playing, the crossfade starts from a frozen snapshot of the rig's current pose.
	// A non-positive duration behaves like Play.
	//
	// Parameters:
	//   - clip: the clip to blend to
	//   - loop: whether the new clip wraps at its end
	//   - duration: crossfade length in seconds
	//
	// Returns:
	//   - bool: false if the clip does not bind to the rig; playback is unchanged in that case
	BlendTo(clip *model.AnimationClip, loop bool, duration float32) bool

	// Stop ends playback and any in-progress blend. Bones keep their last sampled pose.
	Stop()

	// PrepareFrame advances playback by dt and writes the sampled pose into the rig.
	//
	// Parameters:
	//   - dt: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - bool: true on the frame a one-shot clip reaches its end
	PrepareFrame(dt float32) bool

	// IsBlending reports whether a crossfade is in progress.
	//
	// Returns:
	//   - bool: true while blending
	IsBlending() bool

	// BlendProgress returns the crossfade progress.
	//
	// Returns:
	//   - float32: 0 (start) to 1 (complete), or 0 when not blending
	BlendProgress() float32

	// CancelBlend stops an in-progress crossfade and keeps the clip that was playing before it.
	CancelBlend()

	// SetAnimationSpeed sets the playback rate multiplier. Negative values are treated as 0.
	//
	// Parameters:
	//   - speed: the rate multiplier (1 = authored speed)
	SetAnimationSpeed(speed float32)

	// SetAnimationTime seeks the active clip to the given time in seconds.
	//
	// Parameters:
	//   - t: the clip time
	SetAnimationTime(t float32)

	// Current returns the clip playback is heading to: the blend target while blending,
	// otherwise the playing clip.
	//
	// Returns:
	//   - *model.AnimationClip: the clip, or nil when nothing is playing
	Current() *model.AnimationClip

	// Playable reports whether a clip compiles to at least one bound channel on this rig.
	//
	// Parameters:
	//   - clip: the clip to check
	//
	// Returns:
	//   - bool: true if the clip can be played
	Playable(clip *model.AnimationClip) bool

	// Drives reports whether the player writes the node each frame: any node in the crossfade
	// snapshot while blending, otherwise a node bound by the playing clip.
	//
	// Parameters:
	//   - n: the node to check
	//
	// Returns:
	//   - bool: true if playback owns the node's local transform
	Drives(n *rig.Node) bool

	// Reset stops playback and drops every compiled track.
	Reset()

	// CachedTracks returns the number of compiled tracks held in the cache.
	//
	// Returns:
	//   - int: the cache size
	CachedTracks() int
}

var _ ClipPlayer = &clipPlayer{}

// NewClipPlayer creates a ClipPlayer bound to a rig.
//
// Parameters:
//   - r: the rig to drive
//   - options: variadic list of ClipPlayerBuilderOption functions to configure the player
//
// Returns:
//   - ClipPlayer: the player
func NewClipPlayer(r rig.Rig, options ...ClipPlayerBuilderOption) ClipPlayer {
	p := &clipPlayer{
		mu:    &sync.Mutex{},
		rig:   r,
		cache: make(map[*model.AnimationClip]*track),
		speed: 1,
	}
	if r != nil {
		p.hips = r.Humanoid(rig.Hips)
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// trackFor returns the cached track for a clip, compiling it on first use.
// Clips that fail to compile are cached as nil so they are not re-bound every frame.
func (p *clipPlayer) trackFor(clip *model.AnimationClip) *track {
	if clip == nil {
		return nil
	}
	if t, ok := p.cache[clip]; ok {
		return t
	}
	t := compileTrack(p.rig, clip, p.hips)
	p.cache[clip] = t
	return t
}

func (p *clipPlayer) start(t *track, loop bool) *playback {
	pb := &playback{track: t, loop: loop}
	if p.hips != nil && t.hasHipKey {
		pb.hipOffset = common.Vec3Sub(p.hips.Position, t.hipKey0)
	}
	return pb
}

func (p *clipPlayer) Play(clip *model.AnimationClip, loop bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.trackFor(clip)
	if t == nil {
		return false
	}
	p.current = p.start(t, loop)
	p.target = nil
	p.snapshot = nil
	p.blending = false
	p.blendElapsed = 0
	p.ended = false
	return true
}

func (p *clipPlayer) BlendTo(clip *model.AnimationClip, loop bool, duration float32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.trackFor(clip)
	if t == nil {
		return false
	}
	if duration <= 0 {
		p.current = p.start(t, loop)
		p.target = nil
		p.snapshot = nil
		p.blending = false
		p.ended = false
		return true
	}

	// A blend interrupted mid-way continues from the pose the rig currently shows.
	if p.blending {
		p.current = nil
	}

	p.snapshot = make(map[*rig.Node]nodePose, len(t.channels))
	for _, bc := range t.channels {
		p.snapshot[bc.node] = poseOf(bc.node)
	}
	if p.current != nil {
		for _, bc := range p.current.track.channels {
			p.snapshot[bc.node] = poseOf(bc.node)
		}
	}

	p.target = p.start(t, loop)
	p.blending = true
	p.blendDuration = duration
	p.blendElapsed = 0
	p.ended = false
	return true
}

func (p *clipPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
}

func (p *clipPlayer) stop() {
	p.current = nil
	p.target = nil
	p.snapshot = nil
	p.blending = false
	p.blendElapsed = 0
	p.ended = false
}

func (p *clipPlayer) PrepareFrame(dt float32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	step := dt * p.speed

	if p.blending {
		p.blendElapsed += dt
		if p.current != nil {
			p.current.advance(step)
		}
		p.target.advance(step)

		progress := p.blendElapsed / p.blendDuration
		if progress < 1 {
			p.writeBlend(progress)
			return false
		}

		p.current = p.target
		p.target = nil
		p.snapshot = nil
		p.blending = false
		p.blendElapsed = 0
		p.writePlayback(p.current)
		return false
	}

	if p.current == nil {
		return false
	}
	finished := p.current.advance(step)
	p.writePlayback(p.current)
	if finished && !p.ended {
		p.ended = true
		return true
	}
	return false
}

func (p *clipPlayer) writePlayback(pb *playback) {
	for i, bc := range pb.track.channels {
		pb.pose(i, p.hips, poseOf(bc.node)).writeTo(bc.node)
	}
}

func (p *clipPlayer) writeBlend(progress float32) {
	for n, frozen := range p.snapshot {
		from := frozen
		if p.current != nil {
			if i, ok := p.current.track.byNode[n]; ok {
				from = p.current.pose(i, p.hips, frozen)
			}
		}
		to := frozen
		if i, ok := p.target.track.byNode[n]; ok {
			to = p.target.pose(i, p.hips, frozen)
		}
		blendPose(from, to, progress).writeTo(n)
	}
}

func (p *clipPlayer) IsBlending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blending
}

func (p *clipPlayer) BlendProgress() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.blending || p.blendDuration <= 0 {
		return 0
	}
	return common.Clamp(p.blendElapsed/p.blendDuration, 0, 1)
}

func (p *clipPlayer) CancelBlend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = nil
	p.snapshot = nil
	p.blending = false
	p.blendElapsed = 0
}

func (p *clipPlayer) SetAnimationSpeed(speed float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speed = max(0, speed)
}

func (p *clipPlayer) SetAnimationTime(t float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pb := p.current
	if p.blending {
		pb = p.target
	}
	if pb == nil {
		return
	}
	pb.time = 0
	pb.advance(t)
	p.ended = false
}

func (p *clipPlayer) Current() *model.AnimationClip {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blending {
		return p.target.track.clip
	}
	if p.current == nil {
		return nil
	}
	return p.current.track.clip
}

func (p *clipPlayer) Playable(clip *model.AnimationClip) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trackFor(clip) != nil
}

func (p *clipPlayer) Drives(n *rig.Node) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blending {
		_, ok := p.snapshot[n]
		return ok
	}
	if p.current == nil {
		return false
	}
	_, ok := p.current.track.byNode[n]
	return ok
}

func (p *clipPlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
	clear(p.cache)
}

func (p *clipPlayer) CachedTracks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}
