package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "Lucky Drop"
	s.app.Usage = "Gift drops with a staged reveal"
	s.app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.toml",
			Usage:   "Path to the TOML configuration file",
			EnvVars: []string{"LUCKYDROP_CONFIG"},
		},
	}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used for start service api, it serves every drop, media, suggestion and auth api.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database schema",
			Category:    "Database",
			Description: `Used to create or update the tables of the database.`,
		},
		{
			Action:      s.startEvents,
			Name:        "events",
			Usage:       "Start drop events consumer",
			Category:    "Worker",
			Description: `Used to start a worker consuming the drop lifecycle events of the message queue.`,
		},
	}
}
