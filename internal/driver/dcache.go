package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"resilient/internal/diag"
	"resilient/internal/source"
)

// diskCacheSchemaVersion changes whenever DiskPayload or the set of
// diagnostics a stage produces changes.
const diskCacheSchemaVersion uint16 = 2

// Digest is a SHA-256 cache key.
type Digest [sha256.Size]byte

// CacheKey derives the key for a file's diagnostics at a stage.
func CacheKey(content [sha256.Size]byte, stage DiagnoseStage) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	_, _ = h.Write([]byte(stage))
	_, _ = h.Write([]byte{byte(diskCacheSchemaVersion >> 8), byte(diskCacheSchemaVersion)})
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DiskCache stores front-end diagnostics by content hash on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached front-end outcome of one file. Spans are stored
// without a file ID and rebound on restore.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path         string
	Stage        string
	SyntaxErrors int
	TypeErrors   int
	Diagnostics  []CachedDiagnostic
}

// CachedDiagnostic is a diag.Diagnostic with file-relative offsets.
type CachedDiagnostic struct {
	Phase    diag.Phase
	Severity diag.Severity
	Code     diag.Code
	Message  string
	Start    uint32
	End      uint32
	Notes    []CachedNote
}

// CachedNote is a diag.Note with file-relative offsets.
type CachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "diag", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// gone after a successful rename
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func newDiskPayload(path string, stage DiagnoseStage, res *DiagnoseResult) *DiskPayload {
	payload := &DiskPayload{
		Schema:       diskCacheSchemaVersion,
		Path:         path,
		Stage:        string(stage),
		SyntaxErrors: res.SyntaxErrors,
		TypeErrors:   res.TypeErrors,
		Diagnostics:  make([]CachedDiagnostic, 0, res.Bag.Len()),
	}
	for _, d := range res.Bag.Items() {
		cd := CachedDiagnostic{
			Phase:    d.Phase,
			Severity: d.Severity,
			Code:     d.Code,
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		payload.Diagnostics = append(payload.Diagnostics, cd)
	}
	return payload
}

// restore rebuilds a DiagnoseResult bound to sf; nil on schema mismatch.
func (payload *DiskPayload) restore(fs *source.FileSet, sf *source.File, maxDiagnostics int) *DiagnoseResult {
	if payload.Schema != diskCacheSchemaVersion {
		return nil
	}
	res := &DiagnoseResult{
		FileSet:      fs,
		File:         sf,
		Bag:          diag.NewBag(maxDiagnostics),
		SyntaxErrors: payload.SyntaxErrors,
		TypeErrors:   payload.TypeErrors,
		Cached:       true,
	}
	for _, cd := range payload.Diagnostics {
		d := diag.Diagnostic{
			Phase:    cd.Phase,
			Severity: cd.Severity,
			Code:     cd.Code,
			Message:  cd.Message,
			Primary:  source.Span{File: sf.ID, Start: cd.Start, End: cd.End},
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: source.Span{File: sf.ID, Start: n.Start, End: n.End}, Msg: n.Msg})
		}
		res.Bag.Add(d)
	}
	return res
}
