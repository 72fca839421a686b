package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/achilleasa/polaris-accel/log"
)

var logger = log.New("polaris-accel")

func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	for _, spec := range ctx.GlobalStringSlice("log-module") {
		module, level, err := parseModuleLevel(spec)
		if err != nil {
			return err
		}
		log.SetModuleLevel(module, level)
	}
	return nil
}

// Split a "module=level" pair as passed to the log-module flag.
func parseModuleLevel(spec string) (string, log.Level, error) {
	module, levelName, found := strings.Cut(spec, "=")
	module = strings.TrimSpace(module)
	if !found || module == "" {
		return "", log.Notice, fmt.Errorf("invalid log-module value %q; expected module=level", spec)
	}
	level, err := log.ParseLevel(strings.TrimSpace(levelName))
	if err != nil {
		return "", log.Notice, err
	}
	return module, level, nil
}
