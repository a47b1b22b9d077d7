package planner

import (
	"sort"

	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
)

// A Plan holds the task queues for a scene in the order they are consumed.
type Plan struct {
	// Vertex mappings followed by texture mappings, guid ascending.
	Mappings []*Task

	// Scene wide tasks, run once all mappings are done.
	Auxiliary []*Task

	// Precomputed visibility tasks, guid ascending.
	Visibility []*Task
}

// Total number of tasks in the plan.
func (p *Plan) Len() int {
	return len(p.Mappings) + len(p.Auxiliary) + len(p.Visibility)
}

// Build the plan for a resolved scene. The result depends only on the
// scene contents.
func Build(sc *scene.Scene) *Plan {
	plan := &Plan{}

	var vertexTasks, textureTasks []*Task
	for _, m := range sc.Mappings {
		task := &Task{
			Mapping: m,
			Guid:    m.Base().Guid,
			Debug:   sc.Constants.HasDebugMapping() && m.Base().Guid == sc.Constants.DebugMappingGuid,
		}

		switch mapping := m.(type) {
		case *scene.VertexMapping:
			task.Kind = VertexMappingTask
			if lod := sc.MappingLOD(m); lod != nil {
				task.Cost = len(lod.Vertices)
			}
			vertexTasks = append(vertexTasks, task)
		case *scene.TextureMapping:
			task.Kind = TextureMappingTask
			task.Cost = int(mapping.SizeX) * int(mapping.SizeY)
			textureTasks = append(textureTasks, task)
		default:
			continue
		}
		task.Channel = fabric.ChannelName(task.Kind.ChannelKind(), task.Guid)
	}
	sortByGuid(vertexTasks)
	sortByGuid(textureTasks)
	plan.Mappings = append(vertexTasks, textureTasks...)

	c := &sc.Constants
	if c.VolumeLightingSpacing > 0 && !c.VolumeLightingBounds.IsEmpty() {
		plan.Auxiliary = append(plan.Auxiliary, newAuxTask(VolumeSamplesTask, fabric.VolumeLightingGuid))
	}
	if c.DistanceFieldVoxelSize > 0 && !c.DistanceFieldBounds.IsEmpty() {
		plan.Auxiliary = append(plan.Auxiliary, newAuxTask(VolumeDistanceFieldTask, fabric.VolumeDistanceFieldGuid))
	}
	if len(sc.MeshAreaLights) > 0 {
		plan.Auxiliary = append(plan.Auxiliary, newAuxTask(MeshAreaLightTask, fabric.MeshAreaLightDataGuid))
	}

	var shadowTasks []*Task
	for _, light := range sc.Lights {
		if !light.IsDominant() {
			continue
		}
		task := newAuxTask(DominantShadowTask, light.Guid)
		task.Light = light
		shadowTasks = append(shadowTasks, task)
	}
	sortByGuid(shadowTasks)
	plan.Auxiliary = append(plan.Auxiliary, shadowTasks...)

	if c.HasDebugMapping() {
		if _, exists := sc.Mapping(c.DebugMappingGuid); exists {
			plan.Auxiliary = append(plan.Auxiliary, newAuxTask(DebugOutputTask, fabric.DebugOutputGuid))
		}
	}

	for _, vt := range sc.VisibilityTasks {
		task := newAuxTask(VisibilityTask, vt.Guid)
		task.Visibility = vt
		task.Cost = len(vt.Cells)
		plan.Visibility = append(plan.Visibility, task)
	}
	sortByGuid(plan.Visibility)

	return plan
}

func newAuxTask(kind TaskKind, guid types.Guid) *Task {
	return &Task{
		Kind:    kind,
		Guid:    guid,
		Channel: fabric.ChannelName(kind.ChannelKind(), guid),
	}
}

func sortByGuid(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Guid.Compare(tasks[j].Guid) < 0
	})
}
