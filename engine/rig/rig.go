package rig

import (
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
)

// ErrNilSkeleton is returned by NewRig when the model carries no skeleton.
var ErrNilSkeleton = errors.New("rig: skeleton is nil")

// Node is one bone of a rig. Rotation, Position and Scale are the bone's local transform and are
// mutated in place every frame by the motion engine; the renderer reads them afterward.
type Node struct {
	// Rotation is the local orientation quaternion (x, y, z, w).
	Rotation [4]float32

	// Position is the local translation relative to the parent bone.
	Position [3]float32

	// Scale is the local scale.
	Scale [3]float32

	name   string
	index  int32
	parent int32
}

// Name returns the bone name the node was created from.
func (n *Node) Name() string {
	return n.name
}

// Index returns the node's index in the rig, which matches the skeleton's bone index.
func (n *Node) Index() int32 {
	return n.index
}

// ParentIndex returns the index of the parent node, or -1 for root nodes.
func (n *Node) ParentIndex() int32 {
	return n.parent
}

// rig is the implementation of the Rig interface.
type rig struct {
	name     string
	nodes    []*Node
	byName   map[string]*Node
	byNorm   map[string]*Node
	humanoid map[HumanBone]*Node
	mapping  map[HumanBone]string
	valid    bool
}

// Rig is a handle to a loaded humanoid skeleton: named bone nodes with mutable local transforms.
// The rig is owned by whoever loaded the avatar; the motion engine only keeps references obtained
// by name lookup and drops them when the rig is released. Lookups of bones the rig does not have
// return nil, and every consumer treats nil as "skip this effect".
type Rig interface {
	// Name returns the rig identifier.
	//
	// Returns:
	//   - string: the rig name
	Name() string

	// Node looks up a node by its exact bone name.
	//
	// Parameters:
	//   - name: the bone name
	//
	// Returns:
	//   - *Node: the node, or nil if missing or the rig was released
	Node(name string) *Node

	// Lookup finds a node by exact name first and by normalized name second, so channels authored
	// against "mixamorig:LeftArm" still bind to a rig exporting "LeftArm".
	//
	// Parameters:
	//   - name: the bone name as written by the clip's source file
	//
	// Returns:
	//   - *Node: the node, or nil if neither form matches
	Lookup(name string) *Node

	// NodeAt looks up a node by skeleton bone index.
	//
	// Parameters:
	//   - index: the bone index
	//
	// Returns:
	//   - *Node: the node, or nil if out of range or the rig was released
	NodeAt(index int32) *Node

	// Nodes returns every node in skeleton order (parents before children).
	//
	// Returns:
	//   - []*Node: all nodes, or nil after Release
	Nodes() []*Node

	// Humanoid resolves a humanoid bone slot to a rig node using the configured bone mapping
	// first and the built-in alias table second.
	//
	// Parameters:
	//   - bone: the humanoid slot
	//
	// Returns:
	//   - *Node: the resolved node, or nil if the rig lacks that bone
	Humanoid(bone HumanBone) *Node

	// MissingHumanoid lists the humanoid slots that could not be resolved.
	//
	// Returns:
	//   - []HumanBone: unresolved slots in AllHumanBones order
	MissingHumanoid() []HumanBone

	// WorldPosition computes the model-space position of a node from the current local transforms
	// of the node and all of its ancestors.
	//
	// Parameters:
	//   - n: the node
	//
	// Returns:
	//   - [3]float32: the world position, or zero for a nil node
	WorldPosition(n *Node) [3]float32

	// Valid reports whether the rig is still loaded.
	//
	// Returns:
	//   - bool: false after Release
	Valid() bool

	// Release invalidates the rig. All lookups return nil afterward.
	Release()
}

var _ Rig = &rig{}

// NewRig creates a Rig from a skeleton, copying each bone's bind transform into a mutable node.
// Bones whose parent index does not precede them are treated as roots so parent chains always terminate.
//
// Parameters:
//   - skel: the skeleton produced by the asset loader
//   - options: variadic list of RigBuilderOption functions to configure the Rig
//
// Returns:
//   - Rig: the rig handle
//   - error: ErrNilSkeleton if skel is nil
func NewRig(skel *model.Skeleton, options ...RigBuilderOption) (Rig, error) {
	if skel == nil {
		return nil, ErrNilSkeleton
	}

	r := &rig{
		name:     "rig",
		nodes:    make([]*Node, len(skel.Bones)),
		byName:   make(map[string]*Node, len(skel.Bones)),
		byNorm:   make(map[string]*Node, len(skel.Bones)),
		humanoid: make(map[HumanBone]*Node),
		valid:    true,
	}
	for _, opt := range options {
		opt(r)
	}

	for i, b := range skel.Bones {
		parent := b.ParentIndex
		if parent < -1 || parent >= int32(i) {
			parent = -1
		}
		n := &Node{
			Rotation: b.LocalTransform.Rotation,
			Position: b.LocalTransform.Translation,
			Scale:    b.LocalTransform.Scale,
			name:     b.Name,
			index:    int32(i),
			parent:   parent,
		}
		if n.Rotation == ([4]float32{}) {
			n.Rotation = common.QuatIdentity()
		}
		if n.Scale == ([3]float32{}) {
			n.Scale = [3]float32{1, 1, 1}
		}
		r.nodes[i] = n
		if _, dup := r.byName[b.Name]; !dup {
			r.byName[b.Name] = n
		}
		norm := normalizeBoneName(b.Name)
		if _, dup := r.byNorm[norm]; !dup {
			r.byNorm[norm] = n
		}
	}

	r.resolveHumanoid()
	return r, nil
}

func (r *rig) resolveHumanoid() {
	for _, hb := range AllHumanBones {
		if name, ok := r.mapping[hb]; ok {
			if n := r.byName[name]; n != nil {
				r.humanoid[hb] = n
				continue
			}
		}
		for _, alias := range humanAliases[hb] {
			if n := r.byNorm[normalizeBoneName(alias)]; n != nil {
				r.humanoid[hb] = n
				break
			}
		}
	}
}

func (r *rig) Name() string {
	return r.name
}

func (r *rig) Node(name string) *Node {
	if !r.valid {
		return nil
	}
	return r.byName[name]
}

func (r *rig) Lookup(name string) *Node {
	if !r.valid {
		return nil
	}
	if n := r.byName[name]; n != nil {
		return n
	}
	return r.byNorm[normalizeBoneName(name)]
}

func (r *rig) NodeAt(index int32) *Node {
	if !r.valid || index < 0 || int(index) >= len(r.nodes) {
		return nil
	}
	return r.nodes[index]
}

func (r *rig) Nodes() []*Node {
	if !r.valid {
		return nil
	}
	return r.nodes
}

func (r *rig) Humanoid(bone HumanBone) *Node {
	if !r.valid {
		return nil
	}
	return r.humanoid[bone]
}

func (r *rig) MissingHumanoid() []HumanBone {
	var missing []HumanBone
	for _, hb := range AllHumanBones {
		if r.humanoid[hb] == nil {
			missing = append(missing, hb)
		}
	}
	return missing
}

func (r *rig) WorldPosition(n *Node) [3]float32 {
	if n == nil || !r.valid {
		return [3]float32{}
	}

	// Parents precede children, so the walk to the root always terminates.
	chain := make([]int32, 0, 16)
	for i := n.index; i >= 0; i = r.nodes[i].parent {
		chain = append(chain, i)
	}

	var world, local, tmp [16]float32
	common.Identity(world[:])
	for j := len(chain) - 1; j >= 0; j-- {
		nd := r.nodes[chain[j]]
		common.ComposeTRS(local[:], nd.Position, common.QuatNormalize(nd.Rotation), nd.Scale)
		common.Mul4(tmp[:], world[:], local[:])
		world = tmp
	}
	return [3]float32{world[12], world[13], world[14]}
}

func (r *rig) Valid() bool {
	return r.valid
}

func (r *rig) Release() {
	r.valid = false
	r.byName = nil
	r.byNorm = nil
	r.humanoid = map[HumanBone]*Node{}
}

// normalizeBoneName lowercases a bone name, strips the Mixamo namespace and drops separators so
// "mixamorig:LeftArm", "Left_Arm" and "leftarm" compare equal.
func normalizeBoneName(name string) string {
	s := strings.ToLower(name)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, "mixamorig_")
	s = strings.TrimPrefix(s, "mixamorig")
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '.', ' ', '-':
			return -1
		}
		return r
	}, s)
}
