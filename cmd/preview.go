package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/achilleasa/lightbake/editor"
	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/planner"
	"github.com/achilleasa/lightbake/preview"
	"github.com/achilleasa/lightbake/scene"
	"github.com/urfave/cli"
)

type previewOptions struct {
	outDir   string
	format   string
	scale    int
	exposure float32
}

// Render the baked light maps of a scene as images.
func RenderPreviews(ctx *cli.Context) error {
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

	opts := previewOptions{
		outDir:   ctx.String("out"),
		format:   ctx.String("format"),
		scale:    ctx.Int("scale"),
		exposure: float32(ctx.Float64("exposure")),
	}
	if err = os.MkdirAll(opts.outDir, 0755); err != nil {
		return err
	}

	session := fabric.NewSession(dir)
	defer session.Close()

	sc, err := scene.Import(session, sceneGuid, scene.ImportOptions{})
	if err != nil {
		return err
	}

	files, err := writePreviews(session, planner.Build(sc), workerOptions(ctx).Batch, opts)
	if err != nil {
		return err
	}
	logger.Noticef("wrote %d preview images to %s", len(files), opts.outDir)
	return nil
}

// Write a light map preview for every texture mapping in plan and one
// preview per shadow map. Vertex mappings are written as sample strips.
func writePreviews(s *fabric.Session, plan *planner.Plan, batchOpts planner.BatchOptions, opts previewOptions) ([]string, error) {
	var files []string
	write := func(name string, tex *preview.Texture) error {
		path := filepath.Join(opts.outDir, name+"."+opts.format)
		if err := preview.WriteFile(path, tex.Scaled(opts.scale)); err != nil {
			return err
		}
		logger.Infof("wrote %s", path)
		files = append(files, path)
		return nil
	}

	for _, batch := range planner.Group(plan.Mappings, batchOpts) {
		textures, vertices, err := readMappingBatch(s, batch, batchOpts.Enabled)
		if err != nil {
			return files, err
		}

		for _, q := range textures {
			tex, err := preview.FromTextureMapping(q, opts.exposure)
			if err != nil {
				return files, fmt.Errorf("mapping %s: %w", q.Guid, err)
			}
			if err = write(q.Guid.String(), tex); err != nil {
				return files, err
			}
			for idx := range q.ShadowMaps {
				sm := &q.ShadowMaps[idx]
				if tex, err = preview.FromShadowMap(sm); err != nil {
					return files, fmt.Errorf("mapping %s: shadow map %s: %w", q.Guid, sm.LightGuid, err)
				}
				if err = write(q.Guid.String()+"_shadow_"+sm.LightGuid.String(), tex); err != nil {
					return files, err
				}
			}
		}

		for _, q := range vertices {
			for _, sm := range q.ShadowMaps {
				path := filepath.Join(opts.outDir, q.Guid.String()+"_shadow_"+sm.LightGuid.String()+"."+opts.format)
				if err = preview.WriteFile(path, preview.Strip(sm.Visibility, 64)); err != nil {
					return files, err
				}
				files = append(files, path)
			}
		}
	}
	return files, nil
}

func readMappingBatch(s *fabric.Session, batch planner.Batch, batched bool) (textures []*encoder.QuantizedTextureMapping, vertices []*encoder.QuantizedVertexMapping, err error) {
	first := batch.First()
	switch {
	case first.Kind == planner.TextureMappingTask && batched:
		textures, err = editor.ReadTextureMappingBatch(s, first.Guid)
	case first.Kind == planner.TextureMappingTask:
		var q *encoder.QuantizedTextureMapping
		if q, err = editor.ReadTextureMapping(s, first.Guid); err == nil {
			textures = append(textures, q)
		}
	case batched:
		vertices, err = editor.ReadVertexMappingBatch(s, first.Guid)
	default:
		var q *encoder.QuantizedVertexMapping
		if q, err = editor.ReadVertexMapping(s, first.Guid); err == nil {
			vertices = append(vertices, q)
		}
	}
	return textures, vertices, err
}
