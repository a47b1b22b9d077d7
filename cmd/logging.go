package cmd

import (
	"fmt"
	"strings"

	"github.com/achilleasa/lightbake/log"
	"github.com/urfave/cli"
)

var logger = log.New("lightbake")

func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	// Per-module overrides in module=level form.
	for _, override := range ctx.GlobalStringSlice("log-module") {
		module, levelName, found := strings.Cut(override, "=")
		if !found {
			return fmt.Errorf("invalid log module override %q; expected module=level", override)
		}
		level, err := log.ParseLevel(levelName)
		if err != nil {
			return err
		}
		log.SetModuleLevel(module, level)
	}
	return nil
}
