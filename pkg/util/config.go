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

package util

type SorterOptions struct {
	ArtifactDir   string `tag:"artifactDir"`
	BatchCapacity int    `tag:"batchCapacity"`
}

type ServerOptions struct {
	Address string `tag:"address"`
}

type LogOptions struct {
	Level string `tag:"level"`
}

type ColumnOption struct {
	Name string `tag:"name"`
	Type string `tag:"type"`
}

type TableOptions struct {
	Name    string         `tag:"name"`
	Path    string         `tag:"path"`
	Format  string         `tag:"format"`
	Columns []ColumnOption `tag:"columns"`
}

type DebugOptions struct {
	PrintProgram bool `tag:"printProgram"`
	PrintResult  bool `tag:"printResult"`
}

type Config struct {
	Sorter SorterOptions  `tag:"sorter"`
	Server ServerOptions  `tag:"server"`
	Log    LogOptions     `tag:"log"`
	Tables []TableOptions `tag:"tables"`
	Debug  DebugOptions   `tag:"debug"`
}

func (cfg *Config) BatchCapacity() int {
	if cfg == nil || cfg.Sorter.BatchCapacity <= 0 {
		return DefaultVectorSize
	}
	return cfg.Sorter.BatchCapacity
}
