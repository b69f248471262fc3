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
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

type benchOptions struct {
	rows      int
	keys      int
	payloads  int
	keyType   string
	desc      bool
	nullFirst bool
	nullRatio float64
}

var benchOpts benchOptions

var benchInfo = "sort random chunks and report throughput"
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: benchInfo,
	Long:  benchInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		initSorterOptions()
		return runBench()
	},
}

func initBenchCmd() {
	RootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchOpts.rows, "rows", 1000000, "total row count")
	benchCmd.Flags().IntVar(&benchOpts.keys, "keys", 1, "key column count")
	benchCmd.Flags().IntVar(&benchOpts.payloads, "payloads", 0, "payload column count")
	benchCmd.Flags().StringVar(&benchOpts.keyType, "key_type", "bigint", "key column type")
	benchCmd.Flags().BoolVar(&benchOpts.desc, "desc", false, "sort descending")
	benchCmd.Flags().BoolVar(&benchOpts.nullFirst, "nulls_first", false, "nulls before values")
	benchCmd.Flags().Float64Var(&benchOpts.nullRatio, "null_ratio", 0, "fraction of null keys")
	benchCmd.Flags().StringVar(&testerCfg.Sorter.ArtifactDir, "artifact_dir", "artifacts", "kernel artifact dir")
	benchCmd.Flags().IntVar(&testerCfg.Sorter.BatchCapacity, "batch", 0, "batch capacity")
	benchCmd.Flags().BoolVar(&testerCfg.Debug.PrintProgram, "print_program", false, "print the kernel program tree")
	benchCmd.Flags().BoolVar(&testerCfg.Debug.PrintResult, "print_result", false, "print the sorted rows")

	viper.BindPFlag("sorter.artifactDir", benchCmd.Flags().Lookup("artifact_dir"))
	viper.BindPFlag("sorter.batchCapacity", benchCmd.Flags().Lookup("batch"))
	viper.BindPFlag("debug.printProgram", benchCmd.Flags().Lookup("print_program"))
	viper.BindPFlag("debug.printResult", benchCmd.Flags().Lookup("print_result"))
}

func benchSpec() (*codegen.SortSpec, error) {
	keyTyp, err := common.LTypeFromString(benchOpts.keyType)
	if err != nil {
		return nil, err
	}
	spec := &codegen.SortSpec{
		NullsFirst: benchOpts.nullFirst,
		Ascending:  !benchOpts.desc,
	}
	for i := 0; i < benchOpts.keys; i++ {
		name := fmt.Sprintf("k%d", i)
		spec.Keys = append(spec.Keys, name)
		spec.Schema = append(spec.Schema, codegen.ColumnDef{Name: name, LTyp: keyTyp})
	}
	for i := 0; i < benchOpts.payloads; i++ {
		spec.Schema = append(spec.Schema, codegen.ColumnDef{
			Name: fmt.Sprintf("p%d", i),
			LTyp: common.VarcharType(),
		})
	}
	return spec, nil
}

func runBench() error {
	spec, err := benchSpec()
	if err != nil {
		return err
	}
	cache, err := codegen.NewKernelCache(
		testerCfg.Sorter.ArtifactDir, testerCfg.BatchCapacity())
	if err != nil {
		return err
	}

	buildStart := time.Now()
	compiled, err := cache.GetOrBuild(spec)
	if err != nil {
		return err
	}
	buildDur := time.Since(buildStart)
	if testerCfg.Debug.PrintProgram {
		fmt.Println(compiled.Program().Explain())
	}

	kern, err := compiled.NewInstance()
	if err != nil {
		return err
	}
	defer kern.Close()

	types := make([]common.LType, 0)
	for _, def := range spec.Schema {
		types = append(types, def.LTyp)
	}
	batchCap := cache.BatchCapacity()

	accumStart := time.Now()
	left := benchOpts.rows
	for left > 0 {
		rows := min(batchCap, left)
		input := randomChunk(types, rows, benchOpts.nullRatio)
		err = kern.Evaluate(input)
		if err != nil {
			return err
		}
		left -= rows
	}
	accumDur := time.Since(accumStart)

	sortStart := time.Now()
	err = kern.Finish()
	if err != nil {
		return err
	}
	sortDur := time.Since(sortStart)

	drainStart := time.Now()
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
		if testerCfg.Debug.PrintResult {
			out.Print()
		}
		total += out.Card()
	}
	drainDur := time.Since(drainStart)
	if total != benchOpts.rows {
		return fmt.Errorf("drained %d rows, fed %d", total, benchOpts.rows)
	}

	elapsed := accumDur + sortDur + drainDur
	fmt.Printf("signature  %s\n", compiled.Signature())
	fmt.Printf("rows       %d\n", total)
	fmt.Printf("build      %v\n", buildDur)
	fmt.Printf("accumulate %v\n", accumDur)
	fmt.Printf("sort       %v\n", sortDur)
	fmt.Printf("drain      %v\n", drainDur)
	fmt.Printf("throughput %.0f rows/s\n", float64(total)/elapsed.Seconds())
	return nil
}

func randomChunk(types []common.LType, rows int, nullRatio float64) *chunk.Chunk {
	out := &chunk.Chunk{}
	out.Init(types, rows)
	for _, vec := range out.Data {
		fillRandom(vec, rows, nullRatio)
	}
	out.SetCard(rows)
	return out
}

func fillRandom(vec *chunk.Vector, rows int, nullRatio float64) {
	switch vec.Typ().GetInternalType() {
	case common.INT32:
		fillColumn[int32](vec, rows, nullRatio, chunk.Int32ScatterOp{})
	case common.INT64:
		fillColumn[int64](vec, rows, nullRatio, chunk.Int64ScatterOp{})
	case common.UINT64:
		fillColumn[uint64](vec, rows, nullRatio, chunk.Uint64ScatterOp{})
	case common.FLOAT:
		fillColumn[float32](vec, rows, nullRatio, chunk.Float32ScatterOp{})
	case common.DOUBLE:
		fillColumn[float64](vec, rows, nullRatio, chunk.Float64ScatterOp{})
	case common.VARCHAR:
		fillColumn[common.String](vec, rows, nullRatio, chunk.StringScatterOp{})
	case common.DATE:
		fillColumn[common.Date](vec, rows, nullRatio, chunk.DateScatterOp{})
	case common.DECIMAL:
		fillColumn[common.Decimal](vec, rows, nullRatio, chunk.DecimalScatterOp{})
	case common.INT128:
		fillColumn[common.Hugeint](vec, rows, nullRatio, chunk.HugeintScatterOp{})
	default:
		panic("usp")
	}
}

func fillColumn[T any](vec *chunk.Vector, rows int, nullRatio float64, op chunk.ScatterOp[T]) {
	data := chunk.GetSliceInPhyFormatFlat[T](vec)
	for i := 0; i < rows; i++ {
		if nullRatio > 0 && rand.Float64() < nullRatio {
			data[i] = op.NullValue()
			vec.Mask.SetInvalid(uint64(i))
		} else {
			data[i] = op.RandValue()
			vec.Mask.SetValid(uint64(i))
		}
	}
	util.AssertFunc(len(data) >= rows)
}
