package hypothesis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	ErrCheckpointNotFound    = errors.New("checkpoint not found")
	ErrCorruptedCheckpoint   = errors.New("corrupted checkpoint")
	ErrCheckpointVersion     = errors.New("unsupported checkpoint version")
	ErrCheckpointParamsDrift = errors.New("checkpoint parameters do not match test")
)

const checkpointVersion = 1

// permCheckpoint is the persisted partial state of a long permutation
// run: how many shuffles completed and how many null statistics met or
// exceeded the observed one. The content hash guards against torn or
// hand-edited files; a resumed run re-derives everything else.
type permCheckpoint struct {
	Version     int       `json:"version"`
	TestID      string    `json:"test_id"`
	Seed        int64     `json:"seed"`
	Shuffles    int       `json:"shuffles"`
	Done        int       `json:"done"`
	Exceed      int       `json:"exceed"`
	CreatedAt   time.Time `json:"created_at"`
	ContentHash string    `json:"content_hash"`
}

func (c *permCheckpoint) hash() string {
	payload := fmt.Sprintf("%d|%s|%d|%d|%d|%d", c.Version, c.TestID, c.Seed, c.Shuffles, c.Done, c.Exceed)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Checkpointer persists permutation progress as JSON files, one per
// test id. Writes go through a temp file and rename so a crash never
// leaves a torn checkpoint behind.
type Checkpointer struct {
	dir string
}

func NewCheckpointer(dir string) (*Checkpointer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint dir: %w", err)
	}
	return &Checkpointer{dir: dir}, nil
}

func (c *Checkpointer) path(testID string) string {
	return filepath.Join(c.dir, testID+".checkpoint.json")
}

func (c *Checkpointer) save(cp *permCheckpoint) error {
	cp.Version = checkpointVersion
	cp.CreatedAt = time.Now().UTC()
	cp.ContentHash = cp.hash()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path(cp.TestID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(cp.TestID))
}

func (c *Checkpointer) load(testID string) (*permCheckpoint, error) {
	data, err := os.ReadFile(c.path(testID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCheckpointNotFound
		}
		return nil, err
	}
	var cp permCheckpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedCheckpoint, err)
	}
	if cp.Version != checkpointVersion {
		return nil, fmt.Errorf("%w: %d", ErrCheckpointVersion, cp.Version)
	}
	want := cp.ContentHash
	cp.ContentHash = ""
	if cp.hash() != want {
		return nil, ErrCorruptedCheckpoint
	}
	cp.ContentHash = want
	return &cp, nil
}

// clear removes a finished checkpoint; a missing file is fine.
func (c *Checkpointer) clear(testID string) {
	_ = os.Remove(c.path(testID))
}
