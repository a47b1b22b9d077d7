package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/lightbake/asset"
	"github.com/achilleasa/lightbake/asset/wavefront"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/planner"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/achilleasa/lightbake/worker"
)

const roomObj = `
light directional sun 0 0 -1 1 1 1 1 shadows dominant
light point lamp 0.5 0.5 2 10 1 1 1 2 shadows
visibility_cell hall 0 0 0 1 1 1
o floor
lightmap texture 8
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
o crate
v 0.2 0.2 0.5
v 0.4 0.2 0.5
v 0.4 0.4 0.5
f 5 6 7
`

func TestChannelName(t *testing.T) {
	guid := types.Guid{A: 1, B: 2, C: 3, D: 4}.String()

	specs := []struct {
		kind   string
		guid   string
		expErr bool
	}{
		{"scene", guid, false},
		{"TextureMapping", guid, false},
		{"unknown", guid, true},
		{"scene", "not-a-guid", true},
	}

	for specIndex, spec := range specs {
		name, err := channelName(spec.kind, spec.guid)
		if spec.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected to get an error", specIndex)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", specIndex, err)
		}
		if !strings.HasPrefix(name, "CHANNEL_") || !strings.Contains(name, guid) {
			t.Fatalf("[spec %d] unexpected channel name %q", specIndex, name)
		}
	}

	if _, err := channelName("bogus", guid); !errors.Is(err, fabric.ErrUnknownKind) {
		t.Fatalf("expected error to wrap ErrUnknownKind; got %v", err)
	}
}

// Compile and bake a scene into a fresh channel folder.
func bakeRoom(t *testing.T, batch planner.BatchOptions) (*fabric.Directory, *scene.Scene) {
	t.Helper()

	dir, err := fabric.NewDirectory(t.TempDir(), func(fabric.Message) {})
	if err != nil {
		t.Fatal(err)
	}

	sc, err := wavefront.Read(asset.NewResourceFromStream("room.obj", strings.NewReader(roomObj)), wavefront.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	session := fabric.NewSession(dir)
	defer session.Close()
	if err = scene.Export(session, sc); err != nil {
		t.Fatal(err)
	}

	opts := worker.DefaultOptions()
	opts.Workers = 2
	opts.Batch = batch
	w := worker.New(dir, opts)
	if err = w.Run(context.Background(), sc.Guid); err != nil {
		t.Fatal(err)
	}
	if failed := w.Stats().Failed(); failed != 0 {
		t.Fatalf("expected all tasks to succeed; %d failed", failed)
	}
	return dir, sc
}

func TestCollectResults(t *testing.T) {
	specs := []planner.BatchOptions{
		{},
		{Enabled: true, MaxBatchSize: 8, SmallMappingThreshold: 4096},
	}

	for specIndex, batch := range specs {
		dir, sc := bakeRoom(t, batch)

		session := fabric.NewSession(dir)
		plan := planner.Build(sc)
		rows := collectResults(session, plan, batch)
		session.Close()

		if len(rows) != plan.Len() {
			t.Fatalf("[spec %d] expected %d rows; got %d", specIndex, plan.Len(), len(rows))
		}
		for _, row := range rows {
			if row.Err != nil {
				t.Fatalf("[spec %d] channel %s (%s): %v", specIndex, row.Channel, row.Kind, row.Err)
			}
		}

		out := renderResults(rows)
		for _, exp := range []string{"texture", "vertex", "dominant-shadow", "visibility", "0 / "} {
			if !strings.Contains(out, exp) {
				t.Fatalf("[spec %d] expected results table to mention %q; got:\n%s", specIndex, exp, out)
			}
		}

		table, err := channelTable(dir)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(table, fabric.ChannelName(fabric.KindScene, sc.Guid)) {
			t.Fatalf("[spec %d] expected channel listing to include the scene channel; got:\n%s", specIndex, table)
		}
	}
}

func TestMissingResultsAreReported(t *testing.T) {
	dir, err := fabric.NewDirectory(t.TempDir(), func(fabric.Message) {})
	if err != nil {
		t.Fatal(err)
	}
	sc, err := wavefront.Read(asset.NewResourceFromStream("room.obj", strings.NewReader(roomObj)), wavefront.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	session := fabric.NewSession(dir)
	defer session.Close()
	plan := planner.Build(sc)
	rows := collectResults(session, plan, planner.BatchOptions{})
	for _, row := range rows {
		if row.Err == nil {
			t.Fatalf("expected an error for unbaked channel %s", row.Channel)
		}
	}

	if out := renderResults(rows); !strings.Contains(out, "error:") {
		t.Fatalf("expected results table to report errors; got:\n%s", out)
	}
}

func TestWritePreviews(t *testing.T) {
	batch := planner.BatchOptions{Enabled: true, MaxBatchSize: 8, SmallMappingThreshold: 4096}
	dir, sc := bakeRoom(t, batch)

	session := fabric.NewSession(dir)
	defer session.Close()

	opts := previewOptions{outDir: t.TempDir(), format: "png", scale: 2, exposure: 1}
	files, err := writePreviews(session, planner.Build(sc), batch, opts)
	if err != nil {
		t.Fatal(err)
	}

	floor := types.GuidFromName("room/mapping/floor").String()
	var foundLightMap bool
	for _, file := range files {
		if filepath.Base(file) == floor+".png" {
			foundLightMap = true
		}
		if _, err := os.Stat(file); err != nil {
			t.Fatal(err)
		}
	}
	if !foundLightMap {
		t.Fatalf("expected a light map preview for the floor mapping; got %v", files)
	}
}
