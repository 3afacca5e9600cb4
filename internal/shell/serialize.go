package shell

import (
	"encoding/json"
	"errors"

	"github.com/kazz187/vbash/internal/limits"
	"github.com/kazz187/vbash/internal/vfs"
)

// ErrExecInFlight is returned by Serialize when a command is currently
// running — snapshotting a VFS mid-mutation would capture a torn state.
var ErrExecInFlight = errors.New("shell: cannot serialize while a command is executing")

type snapshot struct {
	FS     json.RawMessage   `json:"fs"`
	Env    map[string]string `json:"env"`
	Cwd    string            `json:"cwd"`
	Limits limits.Config     `json:"limits"`
}

// Serialize captures {fs, state, limits} as spec.md §6 describes, refusing
// while Exec is in flight (tracked via Bash.inFlight) since the VFS a
// running command sees could be mutated mid-snapshot otherwise.
func (b *Bash) Serialize() ([]byte, error) {
	if b.inFlight.Load() > 0 {
		return nil, ErrExecInFlight
	}
	fsData, err := b.fs.Export()
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshot{
		FS:     fsData,
		Env:    b.baseline.Snapshot(),
		Cwd:    b.cwd,
		Limits: b.limitsCfg,
	})
}

// Rehydrate reconstructs a Bash instance from a Serialize snapshot. The
// resulting instance's builtin registry is freshly populated with defaults
// (RegisterCommand overrides from the original instance are not part of
// the snapshot, since a Handler isn't serializable data).
func Rehydrate(data []byte) (*Bash, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	fsys, err := vfs.Import(snap.FS)
	if err != nil {
		return nil, err
	}
	b, err := New(WithEnv(snap.Env), WithCwd(snap.Cwd), WithLimits(snap.Limits))
	if err != nil {
		return nil, err
	}
	b.fs = fsys
	return b, nil
}
