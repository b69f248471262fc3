package codegen

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/syncmap"

	"github.com/kioco/OAP/pkg/util"
)

// KernelCache is the process-wide compile-once loader: signature in,
// shared compiled kernel out. Entries are never evicted; growth is
// bounded by the number of distinct sort shapes the process sees.
type KernelCache struct {
	_store    *ArtifactStore
	_batchCap int
	_entries  syncmap.Map // Signature.Desc -> *cacheEntry
}

type cacheEntry struct {
	_lock     *util.ReentryLock
	_compiled *CompiledKernel
	_builds   int
}

func NewKernelCache(artifactDir string, batchCap int) (*KernelCache, error) {
	store, err := NewArtifactStore(artifactDir)
	if err != nil {
		return nil, err
	}
	if batchCap <= 0 {
		batchCap = util.DefaultVectorSize
	}
	return &KernelCache{
		_store:    store,
		_batchCap: batchCap,
	}, nil
}

// GetOrBuild returns the compiled kernel for the spec's signature,
// generating and persisting the program on first use. Builds of one
// signature serialize on a per-entry lock so concurrent misses compile
// exactly once; distinct signatures build in parallel. The lock is not
// held during row processing.
func (cache *KernelCache) GetOrBuild(spec *SortSpec) (*CompiledKernel, error) {
	spec = spec.Copy()
	sig := BuildSignature(spec)
	v, _ := cache._entries.LoadOrStore(sig.Desc, &cacheEntry{
		_lock: util.NewReentryLock(),
	})
	entry := v.(*cacheEntry)
	entry._lock.Lock()
	defer entry._lock.Unlock()
	if entry._compiled != nil {
		return entry._compiled, nil
	}
	prog, err := cache._store.Load(sig)
	if err != nil {
		if errors.Is(err, ErrCorruptArtifact) {
			util.Warn("dropping corrupt kernel artifact",
				zap.String("signature", sig.Hex))
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		prog = nil
	}
	if prog == nil {
		prog, err = Generate(spec)
		if err != nil {
			return nil, err
		}
		err = cache._store.Save(sig, prog)
		if err != nil {
			return nil, err
		}
		entry._builds++
		util.Info("built sort kernel",
			zap.String("signature", sig.Hex),
			zap.String("strategy", prog.Strategy.String()))
	}
	compiled, err := Compile(sig, prog, cache._batchCap)
	if err != nil {
		return nil, err
	}
	entry._compiled = compiled
	return compiled, nil
}

// Builds reports how many times the spec's signature was generated by
// this cache. Loads from a shared artifact store do not count.
func (cache *KernelCache) Builds(spec *SortSpec) int {
	sig := BuildSignature(spec)
	v, has := cache._entries.Load(sig.Desc)
	if !has {
		return 0
	}
	entry := v.(*cacheEntry)
	entry._lock.Lock()
	defer entry._lock.Unlock()
	return entry._builds
}

func (cache *KernelCache) Len() int {
	cnt := 0
	cache._entries.Range(func(_, _ any) bool {
		cnt++
		return true
	})
	return cnt
}

func (cache *KernelCache) Store() *ArtifactStore {
	return cache._store
}

func (cache *KernelCache) BatchCapacity() int {
	return cache._batchCap
}
