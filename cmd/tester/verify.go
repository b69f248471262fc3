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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/scan"
)

type verifyOptions struct {
	dataPath   string
	dataFormat string
	columns    string
	keys       string
	desc       bool
	nullFirst  bool
	parallel   int
}

var verifyOpts verifyOptions

var verifyInfo = "sort a data file and check ordering and row conservation"
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: verifyInfo,
	Long:  verifyInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		initSorterOptions()
		return runVerify()
	},
}

func initVerifyCmd() {
	RootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyOpts.dataPath, "data_path", "", "data file path")
	verifyCmd.Flags().StringVar(&verifyOpts.dataFormat, "data_format", "csv", "data format. csv, parquet")
	verifyCmd.Flags().StringVar(&verifyOpts.columns, "columns", "", "column layout. name:type,name:type,...")
	verifyCmd.Flags().StringVar(&verifyOpts.keys, "keys", "", "sort keys. name,name,...")
	verifyCmd.Flags().BoolVar(&verifyOpts.desc, "desc", false, "sort descending")
	verifyCmd.Flags().BoolVar(&verifyOpts.nullFirst, "nulls_first", false, "nulls before values")
	verifyCmd.Flags().IntVar(&verifyOpts.parallel, "parallel", 1, "parallel kernel instances")
	verifyCmd.Flags().StringVar(&testerCfg.Sorter.ArtifactDir, "artifact_dir", "artifacts", "kernel artifact dir")
	verifyCmd.Flags().IntVar(&testerCfg.Sorter.BatchCapacity, "batch", 0, "batch capacity")

	viper.BindPFlag("sorter.artifactDir", verifyCmd.Flags().Lookup("artifact_dir"))
	viper.BindPFlag("sorter.batchCapacity", verifyCmd.Flags().Lookup("batch"))
}

func verifySpec() (*codegen.SortSpec, error) {
	if len(verifyOpts.columns) == 0 || len(verifyOpts.keys) == 0 {
		return nil, fmt.Errorf("verify needs --columns and --keys")
	}
	spec := &codegen.SortSpec{
		NullsFirst: verifyOpts.nullFirst,
		Ascending:  !verifyOpts.desc,
	}
	for _, col := range strings.Split(verifyOpts.columns, ",") {
		name, typName, ok := strings.Cut(strings.TrimSpace(col), ":")
		if !ok {
			return nil, fmt.Errorf("bad column %s, want name:type", col)
		}
		lTyp, err := common.LTypeFromString(typName)
		if err != nil {
			return nil, err
		}
		spec.Schema = append(spec.Schema, codegen.ColumnDef{Name: name, LTyp: lTyp})
	}
	for _, key := range strings.Split(verifyOpts.keys, ",") {
		spec.Keys = append(spec.Keys, strings.TrimSpace(key))
	}
	return spec, nil
}

func runVerify() error {
	spec, err := verifySpec()
	if err != nil {
		return err
	}
	cache, err := codegen.NewKernelCache(
		testerCfg.Sorter.ArtifactDir, testerCfg.BatchCapacity())
	if err != nil {
		return err
	}
	compiled, err := cache.GetOrBuild(spec)
	if err != nil {
		return err
	}

	if verifyOpts.parallel <= 1 {
		err = verifyOnce(compiled, spec)
	} else {
		// every instance re-sorts the same file through the shared kernel
		g := errgroup.Group{}
		for i := 0; i < verifyOpts.parallel; i++ {
			g.Go(func() error {
				return verifyOnce(compiled, spec)
			})
		}
		err = g.Wait()
	}
	if err != nil {
		return err
	}
	fmt.Printf("verify ok: %s x%d\n", verifyOpts.dataPath, max(verifyOpts.parallel, 1))
	return nil
}

func verifyOnce(compiled *codegen.CompiledKernel, spec *codegen.SortSpec) error {
	types := make([]common.LType, 0)
	for _, def := range spec.Schema {
		types = append(types, def.LTyp)
	}
	feeder, err := scan.NewFeeder(verifyOpts.dataFormat, verifyOpts.dataPath, types, nil)
	if err != nil {
		return err
	}
	defer feeder.Close()

	kern, err := compiled.NewInstance()
	if err != nil {
		return err
	}
	defer kern.Close()

	keyIndice := make([]int, 0)
	for _, key := range spec.Keys {
		idx, _ := spec.ColumnIndex(key)
		keyIndice = append(keyIndice, idx)
	}

	batchCap := compiled.BatchCapacity()
	fed := 0
	fedKeys := make(map[string]int)
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
		fed += readed.Card()
		countKeys(readed, keyIndice, fedKeys, 1)
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

	drained := 0
	var prev []*chunk.Value
	out := &chunk.Chunk{}
	for iter.HasNext() {
		err = iter.Next(out)
		if err != nil {
			return err
		}
		if out.Card() > batchCap {
			return fmt.Errorf("batch of %d rows exceeds capacity %d", out.Card(), batchCap)
		}
		countKeys(out, keyIndice, fedKeys, -1)
		for i := 0; i < out.Card(); i++ {
			row := make([]*chunk.Value, len(keyIndice))
			for k, idx := range keyIndice {
				row[k] = out.Data[idx].GetValue(i)
			}
			if prev != nil {
				err = checkOrdered(prev, row, spec)
				if err != nil {
					return fmt.Errorf("row %d: %w", drained+i, err)
				}
			}
			prev = row
		}
		drained += out.Card()
	}

	if drained != fed {
		return fmt.Errorf("fed %d rows, drained %d", fed, drained)
	}
	for key, cnt := range fedKeys {
		if cnt != 0 {
			return fmt.Errorf("key tuple %s count off by %d", key, cnt)
		}
	}
	return nil
}

func countKeys(data *chunk.Chunk, keyIndice []int, counts map[string]int, delta int) {
	sb := strings.Builder{}
	for i := 0; i < data.Card(); i++ {
		sb.Reset()
		for _, idx := range keyIndice {
			sb.WriteString(data.Data[idx].GetValue(i).String())
			sb.WriteByte('|')
		}
		counts[sb.String()] += delta
	}
}

// checkOrdered enforces the output contract on one adjacent row pair:
// null region placement first, then key order with the first non-equal
// key deciding.
func checkOrdered(prev, cur []*chunk.Value, spec *codegen.SortSpec) error {
	prevNull := prev[0].IsNull
	curNull := cur[0].IsNull
	if prevNull || curNull {
		if spec.NullsFirst && !prevNull && curNull {
			return fmt.Errorf("null row after value rows")
		}
		if !spec.NullsFirst && prevNull && !curNull {
			return fmt.Errorf("value row after null rows")
		}
		return nil
	}
	for k := range prev {
		cmp := compareValues(prev[k], cur[k])
		if !spec.Ascending {
			cmp = -cmp
		}
		if cmp < 0 {
			return nil
		}
		if cmp > 0 {
			return fmt.Errorf("key %d out of order: %s then %s",
				k, prev[k], cur[k])
		}
	}
	return nil
}

func compareValues(a, b *chunk.Value) int {
	if a.IsNull || b.IsNull {
		// nulls beyond the first key carry no ordering
		return 0
	}
	switch a.Typ.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		return cmpInt(a.I64, b.I64)
	case common.LTID_UBIGINT:
		return cmpInt(a.U64, b.U64)
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		return cmpInt(a.F64, b.F64)
	case common.LTID_VARCHAR:
		return strings.Compare(a.Str, b.Str)
	case common.LTID_DATE:
		if cmp := cmpInt(a.I64, b.I64); cmp != 0 {
			return cmp
		}
		if cmp := cmpInt(a.I64_1, b.I64_1); cmp != 0 {
			return cmp
		}
		return cmpInt(a.I64_2, b.I64_2)
	case common.LTID_DECIMAL, common.LTID_HUGEINT:
		if cmp := cmpInt(a.I64, b.I64); cmp != 0 {
			return cmp
		}
		return cmpInt(a.I64_1, b.I64_1)
	default:
		panic("usp")
	}
}

func cmpInt[T int64 | uint64 | float64](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
