package artifacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a class of stored artifact. Together with a recording id it
// addresses exactly one file on disk.
type Kind string

const (
	KindPrimary    Kind = "primary"
	KindMicrophone Kind = "microphone"
	KindMerged     Kind = "merged"
	KindMP4        Kind = "mp4"
	KindTranscript Kind = "transcript"
	KindDocument   Kind = "document"
)

var kindLayout = map[Kind]struct {
	dir string
	ext string
}{
	KindPrimary:    {dir: "video", ext: ".webm"},
	KindMicrophone: {dir: "microphone", ext: ".webm"},
	KindMerged:     {dir: "merged", ext: ".webm"},
	KindMP4:        {dir: "mp4", ext: ".mp4"},
	KindTranscript: {dir: "transcripts", ext: ".txt"},
	KindDocument:   {dir: "pdf", ext: ".pdf"},
}

const translationsDir = "translations"

// Store provides file-addressable storage of recording artifacts under a
// single root directory, keyed by recording id and artifact kind.
type Store struct {
	root string
}

// NewStore creates the artifact root and its per-kind subdirectories.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("artifact root required")
	}
	store := &Store{root: root}
	if err := store.ensureDirs(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureDirs() error {
	dirs := []string{filepath.Join(s.root, translationsDir)}
	for _, layout := range kindLayout {
		dirs = append(dirs, filepath.Join(s.root, layout.dir))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact directory %q: %w", dir, err)
		}
	}
	return nil
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the deterministic location for an artifact. The file may or
// may not exist yet.
func (s *Store) Path(id string, kind Kind) string {
	layout := kindLayout[kind]
	return filepath.Join(s.root, layout.dir, id+layout.ext)
}

// TranslationPath returns the location of a translation artifact for a target
// language. Repeated translations for the same language pair share one path.
func (s *Store) TranslationPath(id, targetLanguage string) string {
	return filepath.Join(s.root, translationsDir, fmt.Sprintf("%s_%s.txt", id, targetLanguage))
}

// Save streams an artifact to its deterministic path and returns that path.
func (s *Store) Save(id string, kind Kind, r io.Reader) (string, error) {
	path := s.Path(id, kind)
	if err := writeFile(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// SaveText writes a text artifact to its deterministic path.
func (s *Store) SaveText(id string, kind Kind, text string) (string, error) {
	return s.Save(id, kind, strings.NewReader(text))
}

// SaveTranslation writes a translation artifact, overwriting any prior
// translation for the same language pair.
func (s *Store) SaveTranslation(id, targetLanguage, text string) (string, error) {
	path := s.TranslationPath(id, targetLanguage)
	if err := writeFile(path, strings.NewReader(text)); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create artifact %q: %w", path, err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return fmt.Errorf("write artifact %q: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close artifact %q: %w", path, err)
	}
	return nil
}

// Exists reports whether an artifact reference points at a regular file.
func Exists(ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	info, err := os.Stat(ref)
	return err == nil && !info.IsDir()
}

// Size returns the byte size of an artifact, or zero when it is missing.
func Size(ref string) int64 {
	info, err := os.Stat(ref)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// RemoveAll deletes every artifact stored for a recording id, including
// translations. Missing files are ignored.
func (s *Store) RemoveAll(id string) error {
	var firstErr error
	for kind := range kindLayout {
		if err := os.Remove(s.Path(id, kind)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove artifact %q: %w", s.Path(id, kind), err)
			}
		}
	}
	matches, err := filepath.Glob(filepath.Join(s.root, translationsDir, id+"_*.txt"))
	if err == nil {
		for _, match := range matches {
			if err := os.Remove(match); err != nil && !os.IsNotExist(err) && firstErr == nil {
				firstErr = fmt.Errorf("remove translation %q: %w", match, err)
			}
		}
	}
	return firstErr
}
