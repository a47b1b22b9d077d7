package planner

import (
	"testing"

	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
)

func guid(d uint32) types.Guid {
	return types.Guid{D: d}
}

func testScene(t *testing.T) *scene.Scene {
	meshGuid := guid(1)
	up := types.XYZ(0, 0, 1)

	sc := scene.New(guid(0xFF))
	sc.Meshes = []scene.Mesh{
		scene.NewStaticMesh(meshGuid, []scene.StaticMeshVertex{
			scene.NewVertex(types.XYZ(0, 0, 0), up, types.XY(0, 0)),
			scene.NewVertex(types.XYZ(1, 0, 0), up, types.XY(1, 0)),
			scene.NewVertex(types.XYZ(1, 1, 0), up, types.XY(1, 1)),
		}, []uint16{0, 1, 2}),
	}
	sc.Mappings = []scene.Mapping{
		scene.NewTextureMapping(guid(30), meshGuid, 64, 64),
		scene.NewVertexMapping(guid(21), meshGuid, 1),
		scene.NewTextureMapping(guid(10), meshGuid, 4, 4),
		scene.NewVertexMapping(guid(20), meshGuid, 1),
		scene.NewTextureMapping(guid(11), meshGuid, 2, 2),
	}
	sc.Lights = []*scene.Light{
		{Guid: guid(42), Type: scene.DirectionalLight, Flags: scene.LightDominant},
		{Guid: guid(40), Type: scene.SpotLight, Flags: scene.LightDominant},
		{Guid: guid(41), Type: scene.PointLight},
	}
	sc.VisibilityTasks = []*scene.VisibilityTask{
		{Guid: guid(61)},
		{Guid: guid(60), Cells: []types.Box{types.BoxFromCorners(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))}},
	}
	if err := sc.Resolve(scene.ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestBuildOrdering(t *testing.T) {
	plan := Build(testScene(t))

	expMappings := []types.Guid{guid(20), guid(21), guid(10), guid(11), guid(30)}
	if len(plan.Mappings) != len(expMappings) {
		t.Fatalf("expected %d mapping tasks; got %d", len(expMappings), len(plan.Mappings))
	}
	for idx, task := range plan.Mappings {
		if task.Guid != expMappings[idx] {
			t.Fatalf("[task %d] expected guid %s; got %s", idx, expMappings[idx], task.Guid)
		}
		expKind := TextureMappingTask
		if idx < 2 {
			expKind = VertexMappingTask
		}
		if task.Kind != expKind {
			t.Fatalf("[task %d] expected kind %s; got %s", idx, expKind, task.Kind)
		}
		if task.Channel != fabric.ChannelName(expKind.ChannelKind(), task.Guid) {
			t.Fatalf("[task %d] unexpected channel %s", idx, task.Channel)
		}
	}
	if plan.Mappings[0].Cost != 3 || plan.Mappings[4].Cost != 64*64 {
		t.Fatalf("unexpected task costs %d and %d", plan.Mappings[0].Cost, plan.Mappings[4].Cost)
	}

	if len(plan.Auxiliary) != 2 || plan.Auxiliary[0].Guid != guid(40) || plan.Auxiliary[1].Guid != guid(42) {
		t.Fatalf("expected dominant shadow tasks for lights 40 and 42; got %v", plan.Auxiliary)
	}
	if plan.Auxiliary[0].Light == nil || plan.Auxiliary[0].Kind != DominantShadowTask {
		t.Fatal("expected dominant shadow task to reference its light")
	}

	if len(plan.Visibility) != 2 || plan.Visibility[0].Guid != guid(60) || plan.Visibility[0].Cost != 1 {
		t.Fatalf("unexpected visibility tasks %v", plan.Visibility)
	}
	if plan.Len() != 9 {
		t.Fatalf("expected 9 tasks; got %d", plan.Len())
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	p1 := Build(testScene(t))
	p2 := Build(testScene(t))
	for idx := range p1.Mappings {
		if p1.Mappings[idx].Channel != p2.Mappings[idx].Channel {
			t.Fatalf("[task %d] expected channel %s; got %s", idx, p1.Mappings[idx].Channel, p2.Mappings[idx].Channel)
		}
	}
}

func TestAuxiliaryTasks(t *testing.T) {
	sc := testScene(t)
	sc.Constants.VolumeLightingSpacing = 1
	sc.Constants.VolumeLightingBounds = types.BoxFromCorners(types.XYZ(0, 0, 0), types.XYZ(2, 2, 2))
	sc.Constants.DistanceFieldVoxelSize = 0.5
	sc.Constants.DistanceFieldBounds = types.BoxFromCorners(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))
	sc.Constants.DebugMappingGuid = guid(11)
	sc.MeshAreaLights = []*scene.MeshAreaLight{{}}

	plan := Build(sc)

	expKinds := []TaskKind{VolumeSamplesTask, VolumeDistanceFieldTask, MeshAreaLightTask, DominantShadowTask, DominantShadowTask, DebugOutputTask}
	if len(plan.Auxiliary) != len(expKinds) {
		t.Fatalf("expected %d auxiliary tasks; got %d", len(expKinds), len(plan.Auxiliary))
	}
	for idx, task := range plan.Auxiliary {
		if task.Kind != expKinds[idx] {
			t.Fatalf("[task %d] expected kind %s; got %s", idx, expKinds[idx], task.Kind)
		}
	}

	// The volume distance field shares the mesh area light channel kind
	if exp := fabric.ChannelName(fabric.KindMeshAreaLightData, fabric.VolumeDistanceFieldGuid); plan.Auxiliary[1].Channel != exp {
		t.Fatalf("expected channel %s; got %s", exp, plan.Auxiliary[1].Channel)
	}

	var debugTasks int
	for _, task := range plan.Mappings {
		if task.Debug {
			debugTasks++
			if task.Guid != guid(11) {
				t.Fatalf("expected mapping 11 to be the debug mapping; got %s", task.Guid)
			}
		}
	}
	if debugTasks != 1 {
		t.Fatalf("expected 1 debug mapping; got %d", debugTasks)
	}
}

func TestGroup(t *testing.T) {
	mk := func(kind TaskKind, cost int, debug bool) *Task {
		return &Task{Kind: kind, Cost: cost, Debug: debug}
	}

	tasks := []*Task{
		mk(VertexMappingTask, 10, false),
		mk(VertexMappingTask, 10, false),
		mk(VertexMappingTask, 10, false),
		mk(TextureMappingTask, 16, false),
		mk(TextureMappingTask, 4096, false),
		mk(TextureMappingTask, 16, false),
		mk(TextureMappingTask, 16, true),
		mk(TextureMappingTask, 16, false),
	}

	type spec struct {
		opts     BatchOptions
		expSizes []int
	}

	specs := []spec{
		{BatchOptions{}, []int{1, 1, 1, 1, 1, 1, 1, 1}},
		{BatchOptions{Enabled: true, MaxBatchSize: 8, SmallMappingThreshold: 64}, []int{3, 1, 1, 1, 1, 1}},
		{BatchOptions{Enabled: true, MaxBatchSize: 2, SmallMappingThreshold: 64}, []int{2, 1, 1, 1, 1, 1, 1}},
		{BatchOptions{Enabled: true, MaxBatchSize: 8, SmallMappingThreshold: 8192}, []int{3, 3, 1, 1}},
	}

	for specIndex, s := range specs {
		batches := Group(tasks, s.opts)
		if len(batches) != len(s.expSizes) {
			t.Fatalf("[spec %d] expected %d batches; got %d", specIndex, len(s.expSizes), len(batches))
		}
		var total int
		for idx, b := range batches {
			if len(b.Tasks) != s.expSizes[idx] {
				t.Fatalf("[spec %d] expected batch %d to have %d tasks; got %d", specIndex, idx, s.expSizes[idx], len(b.Tasks))
			}
			for _, task := range b.Tasks {
				if task.Kind != b.First().Kind {
					t.Fatalf("[spec %d] batch %d mixes mapping kinds", specIndex, idx)
				}
			}
			total += len(b.Tasks)
		}
		if total != len(tasks) {
			t.Fatalf("[spec %d] expected %d grouped tasks; got %d", specIndex, len(tasks), total)
		}
	}
}
