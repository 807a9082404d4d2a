/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow"
)

// Config is the top-level configuration of the entityflow command.
var Config = new(struct {
	File string `long:"config" short:"c" env:"ENTITYFLOW_CONFIG" description:"Path to a YAML configuration file"`
})

type cmdVersion struct{}

func (cmdVersion) Execute(args []string) error {
	var info = entityflow.GetVersionInfo()
	fmt.Printf("entityflow version %s\n", info.Version)
	fmt.Printf("Git commit: %s\n", info.GitCommit)
	fmt.Printf("Build date: %s\n", info.BuildDate)
	if info.Modified {
		fmt.Println("Working tree: modified")
	}
	fmt.Printf("Go version: %s\n", info.GoVersion)
	return nil
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	_, _ = parser.AddCommand("version", "Print version information", `
Print the version, commit and build date of this binary.
`, &cmdVersion{})

	_, _ = parser.AddCommand("demo", "Run a demo write workload", `
Open the configured database and notifier, write a workload of players and
rating records through a batch accumulator, and serve Prometheus metrics
until the workload completes (or, with --serve, until signaled to exit).
`, &cmdDemo{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.WithField("err", err).Debug("command failed")
		os.Exit(1)
	}
}
