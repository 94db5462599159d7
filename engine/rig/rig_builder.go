package rig

// RigBuilderOption is a functional option for configuring a Rig during construction.
type RigBuilderOption func(*rig)

// WithName is an option builder that sets the rig identifier used in logs.
//
// Parameters:
//   - name: the rig name
//
// Returns:
//   - RigBuilderOption: a function that applies the name option to a rig
func WithName(name string) RigBuilderOption {
	return func(r *rig) {
		r.name = name
	}
}

// WithBoneMapping is an option builder that pins humanoid slots to exact bone names.
// Slots missing from the mapping, or mapped to a name the skeleton lacks, fall back to the alias table.
//
// Parameters:
//   - mapping: humanoid slot to bone name
//
// Returns:
//   - RigBuilderOption: a function that applies the mapping option to a rig
func WithBoneMapping(mapping map[HumanBone]string) RigBuilderOption {
	return func(r *rig) {
		r.mapping = mapping
	}
}
