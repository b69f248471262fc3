package codegen_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
	_ "github.com/kioco/OAP/pkg/sorter"
)

func cacheSpec() *codegen.SortSpec {
	return &codegen.SortSpec{
		Keys:      []string{"a", "b"},
		Ascending: true,
		Schema: []codegen.ColumnDef{
			{Name: "a", LTyp: common.IntegerType()},
			{Name: "b", LTyp: common.VarcharType()},
		},
	}
}

func TestKernelCacheCompileOnce(t *testing.T) {
	cache, err := codegen.NewKernelCache(t.TempDir(), 1024)
	require.NoError(t, err)

	spec := cacheSpec()
	first, err := cache.GetOrBuild(spec)
	require.NoError(t, err)
	second, err := cache.GetOrBuild(spec.Copy())
	require.NoError(t, err)

	// structurally equal specs share one compiled kernel
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Builds(spec))
	assert.Equal(t, 1, cache.Len())
}

func TestKernelCacheKeyPermutation(t *testing.T) {
	cache, err := codegen.NewKernelCache(t.TempDir(), 1024)
	require.NoError(t, err)

	spec := cacheSpec()
	permuted := cacheSpec()
	permuted.Keys = []string{"b", "a"}

	k1, err := cache.GetOrBuild(spec)
	require.NoError(t, err)
	k2, err := cache.GetOrBuild(permuted)
	require.NoError(t, err)

	assert.NotSame(t, k1, k2)
	assert.Equal(t, 1, cache.Builds(spec))
	assert.Equal(t, 1, cache.Builds(permuted))
	assert.Equal(t, 2, cache.Len())
}

func TestKernelCacheConcurrent(t *testing.T) {
	cache, err := codegen.NewKernelCache(t.TempDir(), 1024)
	require.NoError(t, err)

	spec := cacheSpec()
	g := errgroup.Group{}
	kernels := make([]*codegen.CompiledKernel, 16)
	for i := 0; i < len(kernels); i++ {
		i := i
		g.Go(func() error {
			compiled, err := cache.GetOrBuild(spec.Copy())
			kernels[i] = compiled
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, k := range kernels {
		assert.Same(t, kernels[0], k)
	}
	assert.Equal(t, 1, cache.Builds(spec))
}

func TestKernelCacheLoadsArtifact(t *testing.T) {
	dir := t.TempDir()
	spec := cacheSpec()

	cache, err := codegen.NewKernelCache(dir, 1024)
	require.NoError(t, err)
	_, err = cache.GetOrBuild(spec)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Builds(spec))

	// a fresh cache over the same directory loads instead of building
	reopened, err := codegen.NewKernelCache(dir, 1024)
	require.NoError(t, err)
	_, err = reopened.GetOrBuild(spec)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Builds(spec))
}

func TestKernelCacheCorruptArtifactRebuilds(t *testing.T) {
	dir := t.TempDir()
	spec := cacheSpec()
	sig := codegen.BuildSignature(spec)

	cache, err := codegen.NewKernelCache(dir, 1024)
	require.NoError(t, err)
	_, err = cache.GetOrBuild(spec)
	require.NoError(t, err)

	path := cache.Store().Path(sig)
	require.NoError(t, os.WriteFile(path, []byte("torn"), 0644))

	// corruption is invisible to the caller
	reopened, err := codegen.NewKernelCache(dir, 1024)
	require.NoError(t, err)
	compiled, err := reopened.GetOrBuild(spec)
	require.NoError(t, err)
	require.NotNil(t, compiled)
	assert.Equal(t, 1, reopened.Builds(spec))

	// and the rebuilt artifact is valid again
	_, err = reopened.Store().Load(sig)
	assert.NoError(t, err)
}

func TestKernelCacheInstances(t *testing.T) {
	cache, err := codegen.NewKernelCache(t.TempDir(), 64)
	require.NoError(t, err)

	compiled, err := cache.GetOrBuild(cacheSpec())
	require.NoError(t, err)

	// instances are independent; the compiled kernel is shared state
	k1, err := compiled.NewInstance()
	require.NoError(t, err)
	defer k1.Close()
	k2, err := compiled.NewInstance()
	require.NoError(t, err)
	defer k2.Close()
	assert.NotSame(t, k1, k2)
}
