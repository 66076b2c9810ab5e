package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Store resolves contract factories from a Hardhat artifacts directory or a
// Foundry out directory. The directory is indexed once, on first lookup.
type Store struct {
	dir string
	log logrus.FieldLogger

	mu      sync.Mutex
	indexed bool
	byKey   map[string][]*artifact // key: "source:Name", more than one entry for versioned builds
	byName  map[string][]string    // key: contract name, value: "source:Name" keys
}

// NewStore creates a store reading artifacts below dir.
func NewStore(dir string, log logrus.FieldLogger) *Store {
	return &Store{
		dir: dir,
		log: log,
	}
}

// Index walks the artifacts directory and records every contract artifact.
func (s *Store) Index() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index()
}

func (s *Store) index() error {
	if s.indexed {
		return nil
	}

	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("artifacts directory %s: %w", s.dir, err)
	}

	s.byKey = make(map[string][]*artifact)
	s.byName = make(map[string][]string)

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		return s.processArtifact(path)
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts: %w", err)
	}

	s.indexed = true
	s.log.WithFields(logrus.Fields{
		"dir":       s.dir,
		"contracts": len(s.byKey),
	}).Debug("Indexed contract artifacts")
	return nil
}

func (s *Store) processArtifact(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	a := artifact{path: path}
	if err := json.Unmarshal(data, &a); err != nil {
		// not every json file below the directory is an artifact
		s.log.WithError(err).WithField("path", path).Debug("Skipping non-artifact file")
		return nil
	}

	if a.ContractName == "" || a.SourceName == "" {
		source, name := a.compilationTarget()
		if a.ContractName == "" {
			a.ContractName = name
		}
		if a.SourceName == "" {
			a.SourceName = source
		}
	}
	// Foundry layout without metadata: out/<File>.sol/<Name>.json
	if a.ContractName == "" {
		a.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if a.SourceName == "" {
		a.SourceName = filepath.Base(filepath.Dir(path))
	}
	if len(a.ABI) == 0 && a.Bytecode.Object == "" {
		return nil
	}

	key := a.SourceName + ":" + a.ContractName
	if existing, exists := s.byKey[key]; exists {
		s.log.WithFields(logrus.Fields{
			"contract": key,
			"path":     path,
			"previous": existing[0].path,
		}).Warn("Multiple artifacts for the same contract")
	} else {
		s.byName[a.ContractName] = append(s.byName[a.ContractName], key)
	}
	s.byKey[key] = append(s.byKey[key], &a)
	return nil
}

// Factory resolves a contract by bare name or by "source:Name".
func (s *Store) Factory(ctx context.Context, name string) (*Factory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index(); err != nil {
		return nil, err
	}

	if _, ok := s.byKey[name]; ok {
		return s.factory(name)
	}

	keys := s.byName[name]
	switch len(keys) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case 1:
		return s.factory(keys[0])
	}

	candidates := append([]string(nil), keys...)
	sort.Strings(candidates)
	return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguous, name, strings.Join(candidates, ", "))
}

// factory builds the factory for key, refusing keys backed by more than one
// artifact file (e.g. Foundry builds for several compiler versions).
func (s *Store) factory(key string) (*Factory, error) {
	matches := s.byKey[key]
	if len(matches) == 1 {
		return matches[0].factory()
	}

	paths := make([]string, 0, len(matches))
	for _, a := range matches {
		paths = append(paths, a.path)
	}
	sort.Strings(paths)
	return nil, fmt.Errorf("%w: %s has artifacts %s", ErrAmbiguous, key, strings.Join(paths, ", "))
}
