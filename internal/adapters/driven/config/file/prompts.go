package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the file extension of prompt templates.
const promptExt = ".txt"

const defaultAnswerPrompt = `Answer the question using only the content below.
If the content does not contain the answer, say that the indexed pages do not cover it.
Do not use outside knowledge. Keep the answer short and factual.

Question: %s

Content:
%s

Answer:`

const promptsReadme = `# sercha-rag Prompts

answer.txt turns a question and the retrieved chunks into an answer.

Edit it to change how answers are written. The next command picks the change
up, and a running ` + "`sercha-rag watch`" + ` reloads it immediately.

The template takes two %s placeholders: the question first, then the
retrieved content. A template without exactly two is ignored and the
built-in one is used instead. Delete answer.txt to restore the default.
`

// builtinPrompts are written to the prompt directory on first use and
// served whenever the file is missing or empty.
var builtinPrompts = map[string]string{
	driven.PromptAnswer: defaultAnswerPrompt,
}

// PromptStore serves prompt templates from <dir>/<name>.txt.
//
// The directory is seeded with the built-in templates the first time a
// prompt is loaded. Templates are cached until Reload.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu     sync.RWMutex
	cached map[string]string
}

// NewPromptStore creates a prompt store rooted at dir, or at
// ~/.sercha-rag/prompts when dir is empty. No files are touched until Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDirName, "prompts")
	}
	return &PromptStore{dir: dir, cached: make(map[string]string)}, nil
}

// Load returns the named template. Unknown names without a file on disk
// are an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.cached[name]
	s.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	s.seedOnce.Do(s.seed)

	tmpl, err := s.read(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cached[name]; ok {
		return existing, nil
	}
	s.cached[name] = tmpl
	return tmpl, nil
}

// read returns the trimmed file content, or the built-in template when the
// file is unreadable or blank.
func (s *PromptStore) read(name string) (string, error) {
	builtin, hasBuiltin := builtinPrompts[name]
	if s.seedErr != nil && hasBuiltin {
		return builtin, nil
	}

	data, err := os.ReadFile(s.path(name))
	switch {
	case err == nil && strings.TrimSpace(string(data)) != "":
		return strings.TrimSpace(string(data)), nil
	case hasBuiltin:
		return builtin, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	default:
		return "", fmt.Errorf("load prompt %q: file is empty", name)
	}
}

// Reload drops cached templates so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cached)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

// seed creates the directory, the built-in templates and a README. Existing
// files are left untouched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptsReadme}
	for name, content := range builtinPrompts {
		files[name+promptExt] = content
	}

	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.dir, file), content); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", file, err)
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}
