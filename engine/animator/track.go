package animator

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/rig"
)

// boundChannel is a clip channel resolved to the rig node it drives.
type boundChannel struct {
	node    *rig.Node
	channel *model.AnimationChannel
}

// track is a clip compiled against one rig. Tracks are cached per clip pointer and
// only ever read after compilation.
type track struct {
	clip     *model.AnimationClip
	channels []boundChannel
	byNode   map[*rig.Node]int

	// First hip translation key, used to re-anchor the clip to wherever the hips are when it starts.
	hipKey0   [3]float32
	hasHipKey bool
}

// nodePose is a full local transform for one node.
type nodePose struct {
	rotation [4]float32
	position [3]float32
	scale    [3]float32
}

func poseOf(n *rig.Node) nodePose {
	return nodePose{rotation: n.Rotation, position: n.Position, scale: n.Scale}
}

func (p nodePose) writeTo(n *rig.Node) {
	n.Rotation = p.rotation
	n.Position = p.position
	n.Scale = p.scale
}

// compileTrack binds a clip's channels to rig nodes. Channels bind by bone name when they have
// one and by skeleton index otherwise. Returns nil when no channel binds.
func compileTrack(r rig.Rig, clip *model.AnimationClip, hips *rig.Node) *track {
	if r == nil || !clip.Playable() {
		return nil
	}

	t := &track{clip: clip, byNode: make(map[*rig.Node]int)}
	for i := range clip.Channels {
		ch := &clip.Channels[i]
		if !ch.HasKeys() {
			continue
		}

		var n *rig.Node
		if ch.BoneName != "" {
			n = r.Lookup(ch.BoneName)
		} else {
			n = r.NodeAt(ch.BoneIndex)
		}
		if n == nil {
			continue
		}
		if _, dup := t.byNode[n]; dup {
			continue
		}

		t.byNode[n] = len(t.channels)
		t.channels = append(t.channels, boundChannel{node: n, channel: ch})
		if n == hips && len(ch.PositionKeys) > 0 {
			t.hipKey0 = ch.PositionKeys[0].Value
			t.hasHipKey = true
		}
	}

	if len(t.channels) == 0 {
		return nil
	}
	return t
}

// sample evaluates one channel at time t. Components the channel has no keys for keep base's value.
func (bc boundChannel) sample(t float32, base nodePose) nodePose {
	ch := bc.channel
	if len(ch.RotationKeys) > 0 {
		base.rotation = sampleQuat(ch.RotationKeys, t)
	}
	if len(ch.PositionKeys) > 0 {
		base.position = sampleVector(ch.PositionKeys, t)
	}
	if len(ch.ScaleKeys) > 0 {
		base.scale = sampleVector(ch.ScaleKeys, t)
	}
	return base
}

func sampleVector(keys []model.VectorKeyframe, t float32) [3]float32 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	if i == 0 {
		return keys[0].Value
	}
	if i == len(keys) {
		return keys[len(keys)-1].Value
	}
	a, b := keys[i-1], keys[i]
	return common.Vec3Lerp(a.Value, b.Value, keyFactor(a.Time, b.Time, t))
}

func sampleQuat(keys []model.QuaternionKeyframe, t float32) [4]float32 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	if i == 0 {
		return keys[0].Value
	}
	if i == len(keys) {
		return keys[len(keys)-1].Value
	}
	a, b := keys[i-1], keys[i]
	return common.QuatSlerp(a.Value, b.Value, keyFactor(a.Time, b.Time, t))
}

func keyFactor(t0, t1, t float32) float32 {
	span := t1 - t0
	if span <= 0 {
		return 1
	}
	return common.Clamp((t-t0)/span, 0, 1)
}

func blendPose(a, b nodePose, f float32) nodePose {
	return nodePose{
		rotation: common.QuatSlerp(a.rotation, b.rotation, f),
		position: common.Vec3Lerp(a.position, b.position, f),
		scale:    common.Vec3Lerp(a.scale, b.scale, f),
	}
}
