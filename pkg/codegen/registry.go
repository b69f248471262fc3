package codegen

import (
	"fmt"
	"sync"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
)

// SortKernel is the ABI every generated kernel exposes: accumulate
// batches, run the sort pass, drain the result. Instances are owned by
// one caller and need no locking.
type SortKernel interface {
	Evaluate(input *chunk.Chunk) error
	Finish() error
	MakeResultIterator() (ResultIterator, error)
	Close()
}

// ResultIterator materializes the sorted rows into bounded batches.
// HasNext stays false once the cursor reaches the total row count.
type ResultIterator interface {
	HasNext() bool
	Next(out *chunk.Chunk) error
	Close()
}

// TypeOps is one entry of the per-physical-type dispatch table. The
// concrete tables live with the kernel implementations; the compile
// step only resolves them by type tag.
type TypeOps interface {
	PhyTyp() common.PhyType
}

type KernelFactory func(prog *Program, colOps []TypeOps, batchCap int) (SortKernel, error)

var (
	regLock    sync.Mutex
	factoryReg = make(map[string]KernelFactory)
	typeOpsReg = make(map[common.PhyType]TypeOps)
)

func RegisterFactory(name string, factory KernelFactory) {
	regLock.Lock()
	defer regLock.Unlock()
	factoryReg[name] = factory
}

func RegisterTypeOps(ops TypeOps) {
	regLock.Lock()
	defer regLock.Unlock()
	typeOpsReg[ops.PhyTyp()] = ops
}

func lookupFactory(name string) (KernelFactory, bool) {
	regLock.Lock()
	defer regLock.Unlock()
	factory, has := factoryReg[name]
	return factory, has
}

func lookupTypeOps(pt common.PhyType) (TypeOps, bool) {
	regLock.Lock()
	defer regLock.Unlock()
	ops, has := typeOpsReg[pt]
	return ops, has
}

// CompiledKernel is a Program bound to resolved per-type function
// tables and one signature. Shared read-only across every caller with
// that signature; never mutated after Compile.
type CompiledKernel struct {
	_sig      *Signature
	_prog     *Program
	_factory  KernelFactory
	_colOps   []TypeOps
	_batchCap int
}

// Compile resolves the factory symbol and the per-column type tables.
// An unknown strategy or type tag is a build failure for this
// signature, surfaced verbatim.
func Compile(sig *Signature, prog *Program, batchCap int) (*CompiledKernel, error) {
	name := prog.Strategy.FactoryName()
	factory, has := lookupFactory(name)
	if !has {
		return nil, fmt.Errorf("no kernel factory %s registered", name)
	}
	colOps := make([]TypeOps, len(prog.Schema))
	for i, col := range prog.Schema {
		pt := col.LTyp.GetInternalType()
		ops, has := lookupTypeOps(pt)
		if !has {
			return nil, fmt.Errorf("no type table for %s", pt)
		}
		colOps[i] = ops
	}
	return &CompiledKernel{
		_sig:      sig,
		_prog:     prog,
		_factory:  factory,
		_colOps:   colOps,
		_batchCap: batchCap,
	}, nil
}

func (kern *CompiledKernel) Signature() *Signature {
	return kern._sig
}

func (kern *CompiledKernel) Program() *Program {
	return kern._prog
}

func (kern *CompiledKernel) BatchCapacity() int {
	return kern._batchCap
}

// NewInstance spawns a private kernel instance with empty accumulated
// state. The compiled kernel itself stays untouched.
func (kern *CompiledKernel) NewInstance() (SortKernel, error) {
	return kern._factory(kern._prog, kern._colOps, kern._batchCap)
}
