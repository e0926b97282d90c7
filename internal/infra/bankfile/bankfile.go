// Package bankfile reads the YAML seed file holding quiz items and learning modules.
package bankfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nf-quiz-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a bank seed.
type File struct {
	Items   []domain.QuizItem `yaml:"items"`
	Modules []domain.Module   `yaml:"modules"`
}

// Load reads and validates the seed file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read bank file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode bank file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks every item and module; all problems are reported together.
func (f File) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Items))
	for i, item := range f.Items {
		where := fmt.Sprintf("item %d (%s)", i, item.ID)
		if strings.TrimSpace(item.ID) == "" {
			errs = append(errs, fmt.Errorf("item %d: missing id", i))
		} else if seen[item.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		seen[item.ID] = true
		if strings.TrimSpace(item.Question) == "" {
			errs = append(errs, fmt.Errorf("%s: missing question", where))
		}
		if len(item.Options) != 4 {
			errs = append(errs, fmt.Errorf("%s: needs 4 options, has %d", where, len(item.Options)))
		}
		if !contains(item.Options, item.CorrectAnswer) {
			errs = append(errs, fmt.Errorf("%s: correct answer %q is not one of the options", where, item.CorrectAnswer))
		}
		if _, err := domain.ParseLevel(string(item.Level)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
		if strings.TrimSpace(item.Concept) == "" {
			errs = append(errs, fmt.Errorf("%s: missing concept", where))
		}
	}

	titles := make(map[string]bool, len(f.Modules))
	for i, m := range f.Modules {
		if strings.TrimSpace(m.Title) == "" {
			errs = append(errs, fmt.Errorf("module %d: missing title", i))
			continue
		}
		if titles[m.Title] {
			errs = append(errs, fmt.Errorf("module %q: duplicate title", m.Title))
		}
		titles[m.Title] = true
		if strings.TrimSpace(m.Concept) == "" {
			errs = append(errs, fmt.Errorf("module %q: missing concept", m.Title))
		}
		if _, err := domain.ParseLevel(string(m.Level)); err != nil {
			errs = append(errs, fmt.Errorf("module %q: %w", m.Title, err))
		}
	}
	return errors.Join(errs...)
}

func contains(options []string, want string) bool {
	for _, o := range options {
		if o == want {
			return true
		}
	}
	return false
}

// Loader serves the items of a seed file as the question bank, for running without a
// seeded database.
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) LoadBank(_ context.Context) ([]domain.QuizItem, error) {
	f, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	if len(f.Items) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return f.Items, nil
}
