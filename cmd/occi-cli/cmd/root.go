// Copyright 2023 The occi-os Authors
//
//    Licensed under the Apache License, Version 2.0 (the "License"); you may
//    not use this file except in compliance with the License. You may obtain
//    a copy of the License at
//
//         http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
//    WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
//    License for the specific language governing permissions and limitations
//    under the License.

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brene/occi-os/auth"
	"github.com/brene/occi-os/config"
	"github.com/brene/occi-os/glue"
	"github.com/brene/occi-os/nova"
	"github.com/brene/occi-os/util"
)

var Version string

var (
	cfgFile string
	debug   bool

	cfg    *config.Config
	vmGlue *glue.VMGlue
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "occi-cli",
	Short: "OCCI compute glue CLI app",
	Long:  `CLI for poking at the OCCI to Nova glue layer directly, without an OCCI frontend.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFilePath, "occi-os config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cobra.OnInitialize(initGlue)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initGlue() {
	var err error
	cfg, err = config.NewConfig(cfgFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	logWriter, err := util.GetLoggingWriter(cfg)
	if err != nil {
		fmt.Printf("Failed to set up logging: %s\n", err)
		os.Exit(1)
	}
	util.SetupLogging(logWriter, debug)

	compute, volume, err := nova.NewClients(cfg)
	if err != nil {
		fmt.Printf("Failed to connect to OpenStack: %s\n", err)
		os.Exit(1)
	}
	vmGlue = glue.NewVMGlue(compute, volume, cfg)
}

// cliContext returns a context carrying the identity the CLI operates
// under: the service credentials from the config file.
func cliContext() context.Context {
	return auth.PopulateContext(context.Background(), auth.Identity{
		UserID:    cfg.Nova.Username,
		ProjectID: cfg.Nova.ProjectName,
	})
}
