package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/lightbake/editor"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/planner"
	"github.com/achilleasa/lightbake/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// A summary of a single result channel entry.
type resultRow struct {
	Channel string
	Kind    planner.TaskKind
	Guid    string
	Summary string
	Err     error
}

// Inspect the result channels produced by a bake.
func ShowResults(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sceneGuid, err := sceneGuidArg(ctx)
	if err != nil {
		return err
	}
	dir, err := openChannels(ctx)
	if err != nil {
		return err
	}

	session := fabric.NewSession(dir)
	defer session.Close()

	sc, err := scene.Import(session, sceneGuid, scene.ImportOptions{})
	if err != nil {
		return err
	}

	opts := workerOptions(ctx)
	rows := collectResults(session, planner.Build(sc), opts.Batch)
	logger.Noticef("bake results\n%s", renderResults(rows))

	var missing int
	for _, row := range rows {
		if row.Err != nil {
			missing++
		}
	}
	if missing != 0 {
		return fmt.Errorf("%d of %d result channels could not be read", missing, len(rows))
	}
	return nil
}

// Read back every channel a bake of plan produces. Batched mappings are
// read from the channel named after the first mapping in the batch.
func collectResults(s *fabric.Session, plan *planner.Plan, batchOpts planner.BatchOptions) []resultRow {
	var rows []resultRow

	for _, batch := range planner.Group(plan.Mappings, batchOpts) {
		rows = append(rows, mappingRows(s, batch, batchOpts.Enabled)...)
	}

	for _, task := range append(append([]*planner.Task{}, plan.Auxiliary...), plan.Visibility...) {
		row := resultRow{Channel: task.Channel, Kind: task.Kind, Guid: task.Guid.String()}
		row.Summary, row.Err = auxSummary(s, task)
		rows = append(rows, row)
	}
	return rows
}

// Batch channels only contain the mappings that were solved successfully
// so each decoded mapping is matched against the batch tasks by guid.
func mappingRows(s *fabric.Session, batch planner.Batch, batched bool) []resultRow {
	first := batch.First()
	summaries := make(map[string]string)

	textures, vertices, err := readMappingBatch(s, batch, batched)
	for _, q := range textures {
		summaries[q.Guid.String()] = textureSummary(q.LightMap.SizeX, q.LightMap.SizeY, len(q.Lights), len(q.ShadowMaps)+len(q.SignedDistanceFieldShadowMaps), q.ExecutionTime)
	}
	for _, q := range vertices {
		summaries[q.Guid.String()] = vertexSummary(len(q.Samples), len(q.Lights), len(q.ShadowMaps), q.ExecutionTime)
	}

	rows := make([]resultRow, 0, len(batch.Tasks))
	for _, task := range batch.Tasks {
		row := resultRow{Channel: first.Channel, Kind: task.Kind, Guid: task.Guid.String(), Err: err}
		if err == nil {
			summary, found := summaries[row.Guid]
			if !found {
				row.Err = errors.New("mapping missing from channel")
			}
			row.Summary = summary
		}
		rows = append(rows, row)
	}
	return rows
}

func textureSummary(sizeX, sizeY uint32, lights, shadowMaps int, execTime float64) string {
	return fmt.Sprintf("%dx%d texels, %d lights, %d shadow maps, %.3fs", sizeX, sizeY, lights, shadowMaps, execTime)
}

func vertexSummary(samples, lights, shadowMaps int, execTime float64) string {
	return fmt.Sprintf("%d samples, %d lights, %d shadow maps, %.3fs", samples, lights, shadowMaps, execTime)
}

func auxSummary(s *fabric.Session, task *planner.Task) (string, error) {
	switch task.Kind {
	case planner.VolumeSamplesTask:
		res, err := editor.ReadVolumeLighting(s)
		if err != nil {
			return "", err
		}
		var samples int
		for _, brick := range res.Bricks {
			samples += len(brick.Samples)
		}
		return fmt.Sprintf("%d bricks, %d samples", len(res.Bricks), samples), nil
	case planner.VolumeDistanceFieldTask:
		vdf, err := editor.ReadVolumeDistanceField(s)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%dx%dx%d voxels", vdf.SizeX, vdf.SizeY, vdf.SizeZ), nil
	case planner.MeshAreaLightTask:
		lights, err := editor.ReadMeshAreaLights(s)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d lights", len(lights)), nil
	case planner.DominantShadowTask:
		res, err := editor.ReadDominantShadow(s, task.Guid)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%dx%d samples", res.Info.ShadowMapSizeX, res.Info.ShadowMapSizeY), nil
	case planner.DebugOutputTask:
		out, sample, err := editor.ReadDebugOutput(s)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("valid: %t, %d path rays, %d shadow rays, sample: %t", out.Valid, len(out.PathRays), len(out.ShadowRays), sample != nil), nil
	case planner.VisibilityTask:
		res, err := editor.ReadVisibility(s, task.Guid)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d cells, %d debug rays", len(res.Cells), len(res.DebugRays)), nil
	}
	return "", fmt.Errorf("unsupported task kind %s", task.Kind)
}

func renderResults(rows []resultRow) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Channel", "Task", "Guid", "Result"})

	var failed int
	for _, row := range rows {
		result := row.Summary
		if row.Err != nil {
			failed++
			result = fmt.Sprintf("error: %s", row.Err)
		}
		table.Append([]string{row.Channel, row.Kind.String(), row.Guid, result})
	}
	table.SetFooter([]string{"", "", "FAILED", fmt.Sprintf("%d / %d", failed, len(rows))})

	table.Render()
	return buf.String()
}
