package codegen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/btree"

	"github.com/kioco/OAP/pkg/util"
)

const (
	artifactMagic   uint32 = 0x534f5254
	artifactVersion uint32 = 1
	artifactPrefix         = "sorter_"
	artifactSuffix         = ".bin"
)

// ErrCorruptArtifact marks a torn or stale artifact. Callers treat it
// as a cache miss and rebuild; it never surfaces unless the rebuild
// fails too.
var ErrCorruptArtifact = errors.New("corrupt kernel artifact")

type ArtifactKey struct {
	Hex string
}

func ArtifactKeyLess(a, b *ArtifactKey) bool {
	return a.Hex < b.Hex
}

// ArtifactStore persists one serialized Program per signature under a
// shared directory: sorter_<hex>.bin with magic, version, checksum and
// payload. The btree index answers listing and existence without
// touching disk.
type ArtifactStore struct {
	_dir   string
	_index *btree.BTreeG[*ArtifactKey]
}

func NewArtifactStore(dir string) (*ArtifactStore, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	store := &ArtifactStore{
		_dir:   dir,
		_index: btree.NewBTreeG[*ArtifactKey](ArtifactKeyLess),
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() ||
			!strings.HasPrefix(name, artifactPrefix) ||
			!strings.HasSuffix(name, artifactSuffix) {
			continue
		}
		hex := strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), artifactSuffix)
		store._index.Set(&ArtifactKey{Hex: hex})
	}
	return store, nil
}

func (store *ArtifactStore) Path(sig *Signature) string {
	return filepath.Join(store._dir, artifactPrefix+sig.Hex+artifactSuffix)
}

func (store *ArtifactStore) Save(sig *Signature, prog *Program) error {
	payload := &util.BufferSerialize{}
	err := prog.Serialize(payload)
	if err != nil {
		return err
	}
	body := payload.Bytes()
	serial, err := util.NewFileSerialize(store.Path(sig))
	if err != nil {
		return fmt.Errorf("persist artifact %s: %w", sig.Hex, err)
	}
	defer serial.Close()
	err = util.Write[uint32](artifactMagic, serial)
	if err != nil {
		return err
	}
	err = util.Write[uint32](artifactVersion, serial)
	if err != nil {
		return err
	}
	err = util.Write[uint64](bodyChecksum(body), serial)
	if err != nil {
		return err
	}
	err = util.Write[uint32](uint32(len(body)), serial)
	if err != nil {
		return err
	}
	err = serial.WriteData(body, len(body))
	if err != nil {
		return err
	}
	action := util.Check(util.FAULTS_SCOPE_ARTIFACT, "torn_artifact_write")
	if action != nil {
		err = action.Action(action.Args)
		if err != nil {
			return err
		}
	}
	store._index.Set(&ArtifactKey{Hex: sig.Hex})
	return nil
}

// Load reads the artifact back. os.ErrNotExist means never built;
// ErrCorruptArtifact means present but unusable.
func (store *ArtifactStore) Load(sig *Signature) (*Program, error) {
	path := store.Path(sig)
	if !util.FileIsValid(path) {
		return nil, os.ErrNotExist
	}
	deserial, err := util.NewFileDeserialize(path)
	if err != nil {
		return nil, err
	}
	defer deserial.Close()
	var magic, version, bodyLen uint32
	var sum uint64
	if util.Read[uint32](&magic, deserial) != nil || magic != artifactMagic {
		return nil, ErrCorruptArtifact
	}
	if util.Read[uint32](&version, deserial) != nil || version != artifactVersion {
		return nil, ErrCorruptArtifact
	}
	if util.Read[uint64](&sum, deserial) != nil {
		return nil, ErrCorruptArtifact
	}
	if util.Read[uint32](&bodyLen, deserial) != nil {
		return nil, ErrCorruptArtifact
	}
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if deserial.ReadData(body, int(bodyLen)) != nil {
			return nil, ErrCorruptArtifact
		}
	}
	if bodyChecksum(body) != sum {
		return nil, ErrCorruptArtifact
	}
	prog, err := DeserializeProgram(util.NewBufferDeserialize(body))
	if err != nil {
		return nil, ErrCorruptArtifact
	}
	return prog, nil
}

func (store *ArtifactStore) Has(sig *Signature) bool {
	_, has := store._index.Get(&ArtifactKey{Hex: sig.Hex})
	return has
}

// List returns the cached signature hashes in hex order.
func (store *ArtifactStore) List() []string {
	ret := make([]string, 0, store._index.Len())
	store._index.Scan(func(item *ArtifactKey) bool {
		ret = append(ret, item.Hex)
		return true
	})
	return ret
}

func (store *ArtifactStore) Dir() string {
	return store._dir
}

func bodyChecksum(body []byte) uint64 {
	if len(body) == 0 {
		return 0
	}
	return util.Checksum(util.BytesSliceToPointer(body), uint64(len(body)))
}
