// Package persist stores table state snapshots in a diskv-backed key-value
// sink. Staleness is enforced by the reader: snapshots older than TTL are
// discarded on restore, never applied. Read and write failures are logged
// and swallowed; a broken sink must never take the table down.
package persist

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"github.com/sirupsen/logrus"

	"tableflip.dev/grid/pkg/state"
)

// TTL is how long a persisted snapshot stays restorable.
const TTL = time.Hour

// Persistence is the state snapshot sink, keyed by a per-instance state
// key. Implementations swallow sink failures with a warning.
type Persistence interface {
	Save(key string, s state.Snapshot)
	Load(key string) (state.Snapshot, bool)
	Clear(key string)
}

// Load creates a Persistence backed by diskv using the provided config.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	basePath := cfg.BasePath()
	return &persistence{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return nil },
		CacheSizeMax: 1024 * 64,
	}), basePath: basePath, now: time.Now}, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string

	// now is replaceable for staleness tests.
	now func() time.Time
}

func (p *persistence) Save(key string, s state.Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		logrus.Warnf("persist: marshal state %q: %v", key, err)
		return
	}
	if err := p.d.Write(toKey(key), data); err != nil {
		logrus.Warnf("persist: write state %q: %v", key, err)
	}
}

func (p *persistence) Load(key string) (state.Snapshot, bool) {
	val, err := p.d.Read(toKey(key))
	if err != nil {
		// Absent is the common case on first run; not a warning.
		return state.Snapshot{}, false
	}
	var s state.Snapshot
	if err := json.Unmarshal(val, &s); err != nil {
		logrus.Warnf("persist: decode state %q: %v", key, err)
		return state.Snapshot{}, false
	}
	age := p.now().UnixMilli() - s.TS
	if age > TTL.Milliseconds() {
		p.Clear(key)
		return state.Snapshot{}, false
	}
	return s, true
}

func (p *persistence) Clear(key string) {
	if err := p.d.Erase(toKey(key)); err != nil {
		logrus.Warnf("persist: clear state %q: %v", key, err)
	}
}

// toKey flattens a state key into a single diskv file name.
func toKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return r.Replace(key) + ".json"
}

// Nop returns a Persistence that remembers nothing; used when persistence
// is disabled or the sink is unavailable.
func Nop() Persistence { return nop{} }

type nop struct{}

func (nop) Save(string, state.Snapshot)        {}
func (nop) Load(string) (state.Snapshot, bool) { return state.Snapshot{}, false }
func (nop) Clear(string)                       {}
