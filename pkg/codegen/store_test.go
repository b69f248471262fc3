package codegen

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioco/OAP/pkg/util"
)

func TestArtifactStoreSaveLoad(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	spec := twoKeySpec()
	sig := BuildSignature(spec)
	prog, err := Generate(spec)
	require.NoError(t, err)

	assert.False(t, store.Has(sig))
	_, err = store.Load(sig)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, store.Save(sig, prog))
	assert.True(t, store.Has(sig))

	got, err := store.Load(sig)
	require.NoError(t, err)
	assert.Equal(t, prog.Strategy, got.Strategy)
	assert.Equal(t, prog.Keys, got.Keys)
}

func TestArtifactStoreReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)

	spec := twoKeySpec()
	sig := BuildSignature(spec)
	prog, err := Generate(spec)
	require.NoError(t, err)
	require.NoError(t, store.Save(sig, prog))

	// fresh store over the same directory sees the artifact
	reopened, err := NewArtifactStore(dir)
	require.NoError(t, err)
	assert.True(t, reopened.Has(sig))
	got, err := reopened.Load(sig)
	require.NoError(t, err)
	assert.Equal(t, prog.Strategy, got.Strategy)
}

func TestArtifactStoreCorrupt(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	spec := twoKeySpec()
	sig := BuildSignature(spec)
	prog, err := Generate(spec)
	require.NoError(t, err)
	require.NoError(t, store.Save(sig, prog))

	// flip a payload byte
	path := store.Path(sig)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = store.Load(sig)
	assert.ErrorIs(t, err, ErrCorruptArtifact)

	// truncated header
	require.NoError(t, os.WriteFile(path, data[:3], 0644))
	_, err = store.Load(sig)
	assert.ErrorIs(t, err, ErrCorruptArtifact)

	// wrong magic
	bad := append([]byte{}, data...)
	bad[0] ^= 0xff
	require.NoError(t, os.WriteFile(path, bad, 0644))
	_, err = store.Load(sig)
	assert.ErrorIs(t, err, ErrCorruptArtifact)
}

func TestArtifactStoreTornWrite(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	spec := twoKeySpec()
	sig := BuildSignature(spec)
	prog, err := Generate(spec)
	require.NoError(t, err)

	util.Open(util.FAULTS_SCOPE_ARTIFACT)
	defer util.Close(util.FAULTS_SCOPE_ARTIFACT)
	util.Register(util.FAULTS_SCOPE_ARTIFACT,
		"torn_artifact_write",
		nil, func(strings []string) error {
			// the write "succeeds" but the process dies mid-flush
			return os.Truncate(store.Path(sig), 6)
		})

	require.NoError(t, store.Save(sig, prog))
	require.True(t, store.Has(sig))
	_, err = store.Load(sig)
	assert.ErrorIs(t, err, ErrCorruptArtifact)
}

func TestArtifactStoreList(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, store.List())

	specs := []*SortSpec{twoKeySpec(), twoKeySpec()}
	specs[1].Ascending = false
	for _, spec := range specs {
		prog, err := Generate(spec)
		require.NoError(t, err)
		require.NoError(t, store.Save(BuildSignature(spec), prog))
	}

	hexes := store.List()
	require.Len(t, hexes, 2)
	assert.Less(t, hexes[0], hexes[1])
}
