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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	wire "github.com/jeroenrinzema/psql-wire"
	"github.com/lib/pq/oid"
	treemap "github.com/liyue201/gostl/ds/map"
	"go.uber.org/zap"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/parser"
	"github.com/kioco/OAP/pkg/scan"
	"github.com/kioco/OAP/pkg/util"
)

var (
	runCfg      util.Config
	catalog     *treemap.Map[string, *tableDef]
	kernelCache *codegen.KernelCache
)

// tableDef binds a catalog name to its data file and column layout.
type tableDef struct {
	name   string
	path   string
	format string
	schema []codegen.ColumnDef
}

func (tab *tableDef) columnIndex(name string) int {
	return util.FindIf(tab.schema, func(col codegen.ColumnDef) bool {
		return col.Name == name
	})
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "sorter.toml"

func loadConfig() {
	has := false
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			_, err := toml.DecodeFile(fpath, &runCfg)
			if err != nil {
				util.Error("load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
				continue
			}
			has = true
			break
		}
	}
	if !has {
		util.Error("sorter.toml does not exist")
		os.Exit(1)
	}
}

func loadCatalog() error {
	catalog = treemap.New[string, *tableDef](func(a, b string) int {
		if a < b {
			return -1
		} else if a > b {
			return 1
		}
		return 0
	})
	for _, tab := range runCfg.Tables {
		def := &tableDef{
			name:   tab.Name,
			path:   tab.Path,
			format: tab.Format,
		}
		for _, col := range tab.Columns {
			lTyp, err := common.LTypeFromString(col.Type)
			if err != nil {
				return fmt.Errorf("table %s column %s: %w", tab.Name, col.Name, err)
			}
			def.schema = append(def.schema, codegen.ColumnDef{
				Name: col.Name,
				LTyp: lTyp,
			})
		}
		if len(def.schema) == 0 {
			return fmt.Errorf("table %s has no columns", tab.Name)
		}
		catalog.Insert(tab.Name, def)
	}
	return nil
}

func main() {
	loadConfig()
	err := util.SetLogLevel(runCfg.Log.Level)
	if err != nil {
		util.Error("bad log level", zap.Error(err))
		os.Exit(1)
	}
	err = loadCatalog()
	if err != nil {
		util.Error("load catalog failed", zap.Error(err))
		os.Exit(1)
	}
	kernelCache, err = codegen.NewKernelCache(
		runCfg.Sorter.ArtifactDir, runCfg.BatchCapacity())
	if err != nil {
		util.Error("open artifact store failed", zap.Error(err))
		os.Exit(1)
	}
	util.Info("sorter service listening",
		zap.String("address", runCfg.Server.Address),
		zap.String("artifacts", kernelCache.Store().Dir()),
		zap.Int("tables", catalog.Size()))
	err = wire.ListenAndServe(runCfg.Server.Address, handler)
	if err != nil {
		util.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func handler(ctx context.Context, query string) (wire.PreparedStatements, error) {
	util.Info("incoming SQL :", zap.String("query", query))
	sortQuery, err := parser.ExtractSortQuery(query)
	if err != nil {
		return nil, err
	}
	tab, err := catalog.Get(sortQuery.Table)
	if err != nil {
		return nil, fmt.Errorf("no table %s in catalog", sortQuery.Table)
	}

	spec := &codegen.SortSpec{
		Keys:       sortQuery.Keys,
		NullsFirst: sortQuery.NullsFirst,
		Ascending:  sortQuery.Ascending,
	}
	var colIndice []int
	if sortQuery.Projection == nil {
		spec.Schema = tab.schema
		colIndice = nil
	} else {
		for _, name := range sortQuery.Projection {
			idx := tab.columnIndex(name)
			if idx < 0 {
				return nil, fmt.Errorf("no such column %s in %s", name, tab.name)
			}
			spec.Schema = append(spec.Schema, tab.schema[idx])
			colIndice = append(colIndice, idx)
		}
	}

	compiled, err := kernelCache.GetOrBuild(spec)
	if err != nil {
		return nil, err
	}
	if runCfg.Debug.PrintProgram {
		fmt.Println(compiled.Program().Explain())
	}

	exec := &ExecCtx{
		tab:      tab,
		compiled: compiled,
		cols:     colIndice,
	}
	return wire.Prepared(
		wire.NewStatement(exec.handleX,
			wire.WithColumns(wireColumns(spec.Schema)),
		),
	), nil
}

func wireColumns(schema []codegen.ColumnDef) wire.Columns {
	cols := make(wire.Columns, 0)
	for _, def := range schema {
		cols = append(cols, wire.Column{
			Name:  def.Name,
			Oid:   oidOf(def.LTyp),
			Width: int16(def.LTyp.Width),
		})
	}
	return cols
}

// oidOf names the column type on the wire; rows travel in text format.
func oidOf(lTyp common.LType) oid.Oid {
	switch lTyp.Id {
	case common.LTID_INTEGER:
		return oid.T_int4
	case common.LTID_BIGINT:
		return oid.T_int8
	case common.LTID_FLOAT:
		return oid.T_float4
	case common.LTID_DOUBLE:
		return oid.T_float8
	case common.LTID_DATE:
		return oid.T_date
	case common.LTID_BOOLEAN:
		return oid.T_bool
	case common.LTID_DECIMAL, common.LTID_UBIGINT, common.LTID_HUGEINT:
		return oid.T_numeric
	default:
		return oid.T_varchar
	}
}

type ExecCtx struct {
	tab      *tableDef
	compiled *codegen.CompiledKernel
	cols     []int
}

func (exec *ExecCtx) handleX(ctx context.Context, writer wire.DataWriter, parameters []wire.Parameter) error {
	kern, err := exec.compiled.NewInstance()
	if err != nil {
		return err
	}
	defer kern.Close()

	types := make([]common.LType, 0)
	for _, def := range exec.compiled.Program().Schema {
		types = append(types, def.LTyp)
	}
	feeder, err := scan.NewFeeder(exec.tab.format, exec.tab.path, types, exec.cols)
	if err != nil {
		return err
	}
	defer feeder.Close()

	batchCap := exec.compiled.BatchCapacity()
	for {
		readed := &chunk.Chunk{}
		readed.Init(types, batchCap)
		err = feeder.Read(readed, batchCap)
		if err != nil {
			return err
		}
		if readed.Card() == 0 {
			break
		}
		err = kern.Evaluate(readed)
		if err != nil {
			return err
		}
	}

	iter, err := kern.MakeResultIterator()
	if err != nil {
		return err
	}
	defer iter.Close()
	total := 0
	out := &chunk.Chunk{}
	for iter.HasNext() {
		err = iter.Next(out)
		if err != nil {
			return err
		}
		err = out.SaveToWriter(writer)
		if err != nil {
			return err
		}
		total += out.Card()
	}
	return writer.Complete(fmt.Sprintf("SELECT %d", total))
}
