package main

import (
	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"
)

const CONFIG string = `config`
const LEVEL string = `level`

var (
	configPath string
	logLevel   string
)

// NewApp 命令行入口
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "wmstiler"
	app.Usage = "Download slippy map tiles from a WMS server"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "set config `file`",
			Value:   "./conf/conf.toml",
			EnvVars: []string{strcase.ToScreamingSnake("wmstiler_" + CONFIG)},
		},
		&cli.StringFlag{
			Name:    LEVEL,
			Aliases: []string{"l"},
			Usage:   "set log level",
			Value:   "info",
			EnvVars: []string{strcase.ToScreamingSnake("wmstiler_log_" + LEVEL)},
		},
	}

	app.Action = func(c *cli.Context) error {
		configPath = c.String(CONFIG)
		logLevel = c.String(LEVEL)
		return run()
	}
	return app
}
