// Package planner turns an imported scene into ordered task queues.
package planner

import (
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
)

type TaskKind uint8

const (
	VertexMappingTask TaskKind = iota
	TextureMappingTask
	VolumeSamplesTask
	VolumeDistanceFieldTask
	MeshAreaLightTask
	DominantShadowTask
	DebugOutputTask
	VisibilityTask
)

func (k TaskKind) String() string {
	switch k {
	case VertexMappingTask:
		return "vertex"
	case TextureMappingTask:
		return "texture"
	case VolumeSamplesTask:
		return "volume"
	case VolumeDistanceFieldTask:
		return "volume-distance-field"
	case MeshAreaLightTask:
		return "mesh-area-light"
	case DominantShadowTask:
		return "dominant-shadow"
	case DebugOutputTask:
		return "debug"
	case VisibilityTask:
		return "visibility"
	}
	return "unknown"
}

// The channel kind the task writes to.
func (k TaskKind) ChannelKind() fabric.Kind {
	switch k {
	case VertexMappingTask:
		return fabric.KindVertexMapping
	case TextureMappingTask:
		return fabric.KindTextureMapping
	case VolumeSamplesTask:
		return fabric.KindVolumeSamples
	case VolumeDistanceFieldTask, MeshAreaLightTask:
		return fabric.KindMeshAreaLightData
	case DominantShadowTask:
		return fabric.KindDominantShadow
	case DebugOutputTask:
		return fabric.KindDebugOutput
	}
	return fabric.KindPrecomputedVisibility
}

// A unit of work. Tasks reference scene entities; they never own them.
type Task struct {
	Kind TaskKind
	Guid types.Guid

	// The entity the task operates on. Only the field matching Kind is set.
	Mapping    scene.Mapping
	Light      *scene.Light
	Visibility *scene.VisibilityTask

	// Channel the task result is written to.
	Channel string

	// Set for the nominated debug mapping.
	Debug bool

	// Number of samples the task produces.
	Cost int
}

// Returns true for vertex and texture mapping tasks.
func (t *Task) IsMapping() bool {
	return t.Kind == VertexMappingTask || t.Kind == TextureMappingTask
}
