package checkpoint

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/trussle/fsys"
	"github.com/trussle/relay/pkg/models"
)

// Extension describe differing types of persisted checkpoint files
type Extension string

const (

	// Active states which checkpoints are currently being written
	Active Extension = ".active"

	// Saved states which checkpoints have been fully written
	Saved Extension = ".chk"
)

// Ext returns the extension of the constant extension
func (e Extension) Ext() string {
	return string(e)
}

const lockFile = "LOCK"

type localStore struct {
	root   string
	fsys   fsys.Filesystem
	logger log.Logger
}

func newLocalStore(filesystem fsys.Filesystem, root string, logger log.Logger) (Store, error) {
	if filesystem == nil {
		return nil, errors.New("no filesystem configured")
	}
	if err := filesystem.MkdirAll(root); err != nil {
		return nil, errors.Wrapf(err, "creating path %s", root)
	}

	lock := filepath.Join(root, lockFile)
	r, _, err := filesystem.Lock(lock)
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", lock)
	}
	defer r.Release()

	return &localStore{
		root:   root,
		fsys:   filesystem,
		logger: logger,
	}, nil
}

func (s *localStore) Save(checkpoint models.Checkpoint) error {
	lock := filepath.Join(s.root, lockFile)
	releaser, _, err := s.fsys.Lock(lock)
	if err != nil {
		return errors.Wrapf(err, "locking %s", lock)
	}
	defer releaser.Release()

	file, err := generateFile(s.fsys, s.path(checkpoint.Partition), Active)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(file).Encode(checkpoint); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return err
	}

	// Promote it; the rename keeps saves atomic per partition.
	var (
		oldname = file.Name()
		newname = modifyExtension(oldname, Saved.Ext())
	)
	return s.fsys.Rename(oldname, newname)
}

func (s *localStore) Get(partition string) (checkpoint models.Checkpoint, ok bool, err error) {
	filename := fmt.Sprintf("%s%s", s.path(partition), Saved.Ext())
	if !s.fsys.Exists(filename) {
		return
	}

	file, err := s.fsys.Open(filename)
	if err != nil {
		err = errors.Wrapf(err, "opening %s", filename)
		return
	}
	defer file.Close()

	if err = json.NewDecoder(file).Decode(&checkpoint); err != nil {
		err = errors.Wrapf(err, "decoding %s", filename)
		return
	}
	ok = true
	return
}

func (s *localStore) Delete(partition string) error {
	filename := fmt.Sprintf("%s%s", s.path(partition), Saved.Ext())
	if !s.fsys.Exists(filename) {
		return nil
	}
	return s.fsys.Remove(filename)
}

func (s *localStore) path(partition string) string {
	fileName := base64.RawURLEncoding.EncodeToString([]byte(partition))
	return filepath.Join(s.root, fileName)
}

func generateFile(filesystem fsys.Filesystem, root string, ext Extension) (fsys.File, error) {
	filename := fmt.Sprintf("%s%s", root, ext.Ext())
	return filesystem.Create(filename)
}

func modifyExtension(filename, newExt string) string {
	return filename[:len(filename)-len(filepath.Ext(filename))] + newExt
}
