// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.uber.org/zap"

	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/util"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initBenchCmd()
	initVerifyCmd()
	initArtifactsCmd()
}

var testerCfg = &util.Config{}

///root cmd

var info = "tester"
var RootCmd = &cobra.Command{
	Use:          "tester",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use tester --help or -h")
	},
}

func initSorterOptions() {
	testerCfg.Sorter.ArtifactDir = viper.GetString("sorter.artifactDir")
	testerCfg.Sorter.BatchCapacity = viper.GetInt("sorter.batchCapacity")
	testerCfg.Debug.PrintProgram = viper.GetBool("debug.printProgram")
	testerCfg.Debug.PrintResult = viper.GetBool("debug.printResult")
}

///artifacts cmd

var artifactsInfo = "list persisted kernel artifacts"
var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: artifactsInfo,
	Long:  artifactsInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		initSorterOptions()
		store, err := codegen.NewArtifactStore(testerCfg.Sorter.ArtifactDir)
		if err != nil {
			return err
		}
		hexes := store.List()
		for _, hex := range hexes {
			fmt.Println(hex)
		}
		fmt.Printf("%d artifacts in %s\n", len(hexes), store.Dir())
		return nil
	},
}

func initArtifactsCmd() {
	RootCmd.AddCommand(artifactsCmd)
	artifactsCmd.Flags().StringVar(&testerCfg.Sorter.ArtifactDir, "artifact_dir", "artifacts", "kernel artifact dir")
	viper.BindPFlag("sorter.artifactDir", artifactsCmd.Flags().Lookup("artifact_dir"))
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "tester.toml"

func loadConfig() {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			viper.SetConfigFile(fpath)
			err := viper.ReadInConfig()
			if err != nil {
				util.Error("viper load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
				continue
			}
			break
		}
	}
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
