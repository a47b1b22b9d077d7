package cmd

import (
	"errors"

	"github.com/achilleasa/lightbake/asset/wavefront"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/scene"
	"github.com/urfave/cli"
)

// Compile wavefront scenes and export them to a channel directory.
func CompileScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.NArg() == 0 {
		return errors.New("missing scene file arguments")
	}

	dir, err := openChannels(ctx)
	if err != nil {
		return err
	}

	opts := wavefront.DefaultOptions()
	if n := ctx.Int("lightmap-size"); n > 0 {
		opts.LightmapSize = int32(n)
	}
	opts.VertexMappings = ctx.Bool("vertex")
	if ratio := ctx.Float64("sample-ratio"); ratio > 0 {
		opts.SampleToAreaRatio = float32(ratio)
	}

	session := fabric.NewSession(dir)
	defer session.Close()

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := wavefront.ReadFile(sceneFile, opts)
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())

		if err = scene.Export(session, sc); err != nil {
			return err
		}
		logger.Noticef("exported scene %s to %s", sc.Guid, fabric.ChannelName(fabric.KindScene, sc.Guid))
	}

	return nil
}

// Display the contents of a scene channel.
func ShowSceneInfo(ctx *cli.Context) error {
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

	logger.Noticef("scene information:\n%s", sc.Stats())
	return nil
}

// Open the channel directory named by the --channels flag. Side band
// messages are logged.
func openChannels(ctx *cli.Context) (*fabric.Directory, error) {
	root := ctx.String("channels")
	if root == "" {
		return nil, errors.New("missing --channels argument")
	}
	return fabric.NewDirectory(root, nil)
}
