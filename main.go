package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lightbake/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	channelsFlag := cli.StringFlag{
		Name:  "channels, c",
		Value: "channels",
		Usage: "folder holding the channel files",
	}
	sceneFlag := cli.StringFlag{
		Name:  "scene, s",
		Usage: "guid of the scene to operate on",
	}
	batchFlags := []cli.Flag{
		cli.BoolFlag{
			Name:  "batch",
			Usage: "group small mappings into shared channels",
		},
		cli.IntFlag{
			Name:  "batch-size",
			Value: 64,
			Usage: "max mappings per batch",
		},
	}

	app := cli.NewApp()
	app.Name = "lightbake"
	app.Usage = "bake static lighting for scenes exchanged over a channel folder"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringSliceFlag{
			Name:  "log-module",
			Value: &cli.StringSlice{},
			Usage: "override the log level of a single module (e.g. solver=debug)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile wavefront scenes into scene channels",
			Description: `
Parse a scene definition from a wavefront obj file, together with its material
libraries and lighting directives, and export it as a scene channel.

The guid of the exported scene is derived from the file name and can be passed
to the bake command.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj.gz ...",
			Flags: []cli.Flag{
				channelsFlag,
				cli.IntFlag{
					Name:  "lightmap-size",
					Value: 64,
					Usage: "light map size for objects without a lightmap directive",
				},
				cli.BoolFlag{
					Name:  "vertex",
					Usage: "use vertex mappings for objects without a lightmap directive",
				},
				cli.Float64Flag{
					Name:  "sample-ratio",
					Value: 1.0,
					Usage: "sample to area ratio for vertex mappings",
				},
			},
			Action: cmd.CompileScene,
		},
		{
			Name:  "bake",
			Usage: "bake the lighting for a scene",
			Description: `
Import a scene channel, solve the lighting for all of its mappings and scene
wide tasks and export the results as channels next to the scene.`,
			Flags: append([]cli.Flag{
				channelsFlag,
				sceneFlag,
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of concurrent tasks (defaults to the number of CPUs)",
				},
				cli.BoolFlag{
					Name:  "strict",
					Usage: "abort if a mapping references an unknown mesh",
				},
				cli.IntFlag{
					Name:  "sky-samples",
					Value: 32,
					Usage: "hemisphere directions used for sky visibility",
				},
				cli.BoolFlag{
					Name:  "debug-visibility",
					Usage: "record the rays traced by visibility tasks",
				},
			}, batchFlags...),
			Action: cmd.Bake,
		},
		{
			Name:        "scene-info",
			Usage:       "display scene channel information",
			Description: `Import a scene channel and display its contents.`,
			Flags:       []cli.Flag{channelsFlag, sceneFlag},
			Action:      cmd.ShowSceneInfo,
		},
		{
			Name:  "results",
			Usage: "inspect the result channels of a bake",
			Description: `
Read back every channel a bake of the scene produces and display a summary.
The batching flags must match the ones used for the bake.`,
			Flags:  append([]cli.Flag{channelsFlag, sceneFlag}, batchFlags...),
			Action: cmd.ShowResults,
		},
		{
			Name:  "preview",
			Usage: "render the baked light maps of a scene as images",
			Description: `
Decode the texture mapping channels of a baked scene and write the simple light
map and every shadow map as an image. Vertex mapping shadow maps are written as
sample strips.`,
			Flags: append([]cli.Flag{
				channelsFlag,
				sceneFlag,
				cli.StringFlag{
					Name:  "out, o",
					Value: "preview",
					Usage: "folder for the rendered images",
				},
				cli.StringFlag{
					Name:  "format, f",
					Value: "png",
					Usage: "image format (png, bmp or tiff)",
				},
				cli.IntFlag{
					Name:  "scale",
					Value: 4,
					Usage: "integer upscaling factor",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "exposure applied before tone-mapping",
				},
			}, batchFlags...),
			Action: cmd.RenderPreviews,
		},
		{
			Name:   "list",
			Usage:  "list the channels in a channel folder",
			Flags:  []cli.Flag{channelsFlag},
			Action: cmd.ListChannels,
		},
		{
			Name:      "channel-name",
			Usage:     "print the channel name for a kind and a guid",
			ArgsUsage: "KIND GUID",
			Action:    cmd.ChannelName,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
