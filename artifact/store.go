// Package artifact owns the on-disk layout of traces and screen recordings
// captured by test sessions.
package artifact

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// DefaultRoot is the results directory relative to the working directory.
const DefaultRoot = "results"

const (
	tracesDir     = "traces"
	videosDir     = "videos"
	failVideosDir = "fail"
	consoleDir    = "console"

	traceExt   = ".zip"
	videoExt   = ".webm"
	consoleExt = ".log"
)

// ErrPersistence wraps every I/O failure while moving or writing artifacts.
var ErrPersistence = errors.New("artifact persistence failed")

// Kind of a captured artifact.
type Kind string

const (
	KindTrace   Kind = "trace"
	KindVideo   Kind = "video"
	KindConsole Kind = "console"
)

// Artifact is a retained file of a failed test.
type Artifact struct {
	Kind     Kind
	TestName string
	Path     string
	Size     int64
}

// Store maps test names to artifact paths below a results root.
//
// Layout:
//
//	<root>/traces/<name>.zip
//	<root>/videos/            staging directory for raw recordings
//	<root>/videos/fail/<name>.webm
//	<root>/console/<name>.log
type Store struct {
	root   string
	logger *slog.Logger

	resetOnce sync.Once
	resetErr  error
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Root is the results directory.
	// Default: DefaultRoot
	Root string
	// Logger receives persistence warnings.
	// Default: slog.Default()
	Logger *slog.Logger
}

// NewStore creates a store. It does not touch the filesystem.
func NewStore(opts StoreOptions) *Store {
	root := opts.Root
	if root == "" {
		root = DefaultRoot
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger}
}

// SetLogger replaces the logger. It must not be called concurrently with other methods.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Root returns the results directory.
func (s *Store) Root() string {
	return s.root
}

// Reset deletes and recreates the results root. Only the first call per Store
// touches the filesystem, later calls return the first result.
func (s *Store) Reset() error {
	s.resetOnce.Do(func() {
		s.resetErr = s.clean()
		if s.resetErr == nil {
			s.logger.Debug("Reset results directory", slog.String("root", s.root))
		}
	})
	return s.resetErr
}

// Clean unconditionally deletes and recreates the results root.
func (s *Store) Clean() error {
	return s.clean()
}

func (s *Store) clean() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("removing %s: %w", s.root, err)
	}
	if err := os.MkdirAll(s.StagingDir(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.StagingDir(), err)
	}
	return nil
}

// StagingDir is where the browser writes raw recordings.
func (s *Store) StagingDir() string {
	return filepath.Join(s.root, videosDir)
}

// TracePath returns where the trace of a failed test is written.
func (s *Store) TracePath(testName string) string {
	return filepath.Join(s.root, tracesDir, FileName(testName)+traceExt)
}

// FailedVideoPath returns where the recording of a failed test is kept.
func (s *Store) FailedVideoPath(testName string) string {
	return filepath.Join(s.root, videosDir, failVideosDir, FileName(testName)+videoExt)
}

// ConsolePath returns where the console messages of a failed test are written.
func (s *Store) ConsolePath(testName string) string {
	return filepath.Join(s.root, consoleDir, FileName(testName)+consoleExt)
}

// Persist runs save after creating the parent directory of path. Failures are
// logged and returned wrapped in ErrPersistence so callers can ignore them.
func (s *Store) Persist(kind Kind, path string, save func(path string) error) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err == nil {
		err = save(path)
	}
	if err != nil {
		err = fmt.Errorf("%w: %s %s: %w", ErrPersistence, kind, path, err)
		s.logger.Warn("Could not persist artifact", slog.String("kind", string(kind)), slog.String("path", path), slog.Any("error", err))
		return err
	}
	s.logger.Info("Persisted artifact", slog.String("kind", string(kind)), slog.String("path", path))
	return nil
}

// List returns the retained artifacts sorted by test name and kind.
// A missing root yields an empty list.
func (s *Store) List() ([]Artifact, error) {
	var artifacts []Artifact
	for _, loc := range []struct {
		kind Kind
		dir  string
		ext  string
	}{
		{KindTrace, filepath.Join(s.root, tracesDir), traceExt},
		{KindVideo, filepath.Join(s.root, videosDir, failVideosDir), videoExt},
		{KindConsole, filepath.Join(s.root, consoleDir), consoleExt},
	} {
		kind, dir, ext := loc.kind, loc.dir, loc.ext
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}

		files := lo.Filter(entries, func(e fs.DirEntry, _ int) bool {
			return !e.IsDir() && strings.HasSuffix(e.Name(), ext)
		})
		for _, e := range files {
			info, err := e.Info()
			if err != nil {
				return nil, err
			}
			artifacts = append(artifacts, Artifact{
				Kind:     kind,
				TestName: strings.TrimSuffix(e.Name(), ext),
				Path:     filepath.Join(dir, e.Name()),
				Size:     info.Size(),
			})
		}
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].TestName != artifacts[j].TestName {
			return artifacts[i].TestName < artifacts[j].TestName
		}
		return artifacts[i].Kind < artifacts[j].Kind
	})
	return artifacts, nil
}

// FileName makes a test name usable as a single path element.
// Subtest names contain slashes, which would otherwise create directories. When
// characters had to be replaced, a hash of testName is appended so that
// e.g. "TestA/b" and "TestA_b" do not share a file.
func FileName(testName string) string {
	name := strings.TrimSpace(pathReplacer.Replace(testName))
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	if name != testName {
		h := fnv.New32a()
		h.Write([]byte(testName))
		name = fmt.Sprintf("%s-%08x", name, h.Sum32())
	}
	return name
}

var pathReplacer = strings.NewReplacer("/", "_", "\\", "_")
