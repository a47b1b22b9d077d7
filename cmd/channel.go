package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Print the channel name for a kind tag and a guid.
func ChannelName(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 2 {
		return errors.New("expected kind and guid arguments")
	}

	name, err := channelName(ctx.Args().Get(0), ctx.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, name)
	return nil
}

func channelName(kindTag, guidValue string) (string, error) {
	kind, err := fabric.ParseKind(kindTag)
	if err != nil {
		return "", err
	}
	guid, err := types.ParseGuid(guidValue)
	if err != nil {
		return "", err
	}
	return fabric.ChannelName(kind, guid), nil
}

// List the published channels in a channel directory.
func ListChannels(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	dir, err := openChannels(ctx)
	if err != nil {
		return err
	}
	table, err := channelTable(dir)
	if err != nil {
		return err
	}
	logger.Noticef("channels in %s\n%s", dir.Root(), table)
	return nil
}

func channelTable(dir *fabric.Directory) (string, error) {
	names, err := dir.List()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Channel", "Size"})

	var total int64
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir.Root(), name))
		if err != nil {
			return "", err
		}
		total += info.Size()
		table.Append([]string{name, fmt.Sprintf("%d", info.Size())})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", total)})

	table.Render()
	return buf.String(), nil
}
