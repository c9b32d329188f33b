package labelfmt

import (
	"strings"

	"github.com/pkg/errors"
)

// Errors returned by vocabulary edits and label lookups
var (
	ErrDuplicateLabel = errors.New("label already exists")
	ErrEmptyLabel     = errors.New("label is empty")
	ErrUnknownLabel   = errors.New("label not in vocabulary")
)

// Vocabulary is the ordered list of label names. A name's position is its
// class id in label files, so removing an entry renumbers every later one.
// A nil *Vocabulary reads as empty.
type Vocabulary struct {
	names []string
}

// NewVocabulary builds a vocabulary, dropping blanks and duplicates
func NewVocabulary(names ...string) *Vocabulary {
	v := &Vocabulary{}
	for _, n := range names {
		_ = v.Add(n)
	}
	return v
}

// Add appends a trimmed, non-empty, unique name
func (v *Vocabulary) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyLabel
	}
	if v.Contains(name) {
		return errors.Wrapf(ErrDuplicateLabel, "%q", name)
	}
	v.names = append(v.names, name)
	return nil
}

// Remove deletes name and returns the index it occupied. Class ids greater
// than the returned index now resolve to different names.
func (v *Vocabulary) Remove(name string) (int, error) {
	idx := v.Index(strings.TrimSpace(name))
	if idx < 0 {
		return -1, errors.Wrapf(ErrUnknownLabel, "%q", name)
	}
	v.names = append(v.names[:idx], v.names[idx+1:]...)
	return idx, nil
}

// Index returns the class id of name, or -1
func (v *Vocabulary) Index(name string) int {
	if v == nil {
		return -1
	}
	for i, n := range v.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Name returns the label for a class id
func (v *Vocabulary) Name(id int) (string, bool) {
	if v == nil || id < 0 || id >= len(v.names) {
		return "", false
	}
	return v.names[id], true
}

// Contains reports whether name is in the vocabulary
func (v *Vocabulary) Contains(name string) bool { return v.Index(name) >= 0 }

// Len returns the number of labels
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.names)
}

// Names returns a copy of the ordered names
func (v *Vocabulary) Names() []string {
	if v == nil {
		return []string{}
	}
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}
