// Package proptext holds the raw text of a property file (SET.def, *.dtx, box.def)
// and edits it in place by span replacement. Lines look like `#NAME: value`; there
// is no grammar beyond "property name, delimiter, rest of line", so comments and
// blank lines survive every edit untouched.
package proptext

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/dtxorg/internal/constant"
)

// ErrTitleMissing is returned by Load when neither decoding exposes a #TITLE property.
var ErrTitleMissing = errors.New("title property missing")

const createdHeader = "; Created by dtxorg\r\n\r\n"

// Text is a loaded property file. A nil *Text is the invalid instance: every
// method on it is a no-op reporting failure.
type Text struct {
	path string
	raw  string
}

// Load reads path, decoding Shift-JIS first and UTF-16 second. The decoding that
// exposes a #TITLE property wins.
func Load(path string) (*Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read property file %s: %w", path, err)
	}
	raw, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode property file %s: %w", path, err)
	}
	return &Text{path: path, raw: raw}, nil
}

// New builds the minimal buffer for a brand new file without touching disk.
func New(title, path string) *Text {
	return &Text{
		path: path,
		raw:  createdHeader + constant.PropTitle + ": " + title + "\r\n",
	}
}

// Create builds the minimal buffer and writes it to path immediately.
func Create(title, path string) (*Text, error) {
	t := New(title, path)
	if err := t.Save(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the file the buffer is persisted to.
func (t *Text) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// SetPath points the buffer at a new location, e.g. after its folder was renamed.
func (t *Text) SetPath(path string) {
	if t == nil {
		return
	}
	t.path = path
}

// Raw returns the whole buffer.
func (t *Text) Raw() string {
	if t == nil {
		return ""
	}
	return t.raw
}

// Contains reports whether s occurs anywhere in the buffer.
func (t *Text) Contains(s string) bool {
	if t == nil {
		return false
	}
	return strings.Contains(t.raw, s)
}

// Get returns the value of the first occurrence of name, untrimmed.
func (t *Text) Get(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	sp, ok := locate(t.raw, name)
	if !ok {
		return "", false
	}
	return t.raw[sp.valueStart:sp.valueEnd], true
}

// Set replaces the value of the first occurrence of name. It returns false when
// the property does not exist; callers decide whether to Append instead.
func (t *Text) Set(name, value string) bool {
	if t == nil {
		return false
	}
	sp, ok := locate(t.raw, name)
	if !ok {
		return false
	}
	t.raw = t.raw[:sp.valueStart] + value + t.raw[sp.valueEnd:]
	return true
}

// Delete removes the whole line holding the first occurrence of name.
func (t *Text) Delete(name string) bool {
	if t == nil {
		return false
	}
	sp, ok := locate(t.raw, name)
	if !ok {
		return false
	}
	t.raw = t.raw[:sp.lineStart] + t.raw[sp.lineEnd:]
	return true
}

// Append adds s verbatim to the end of the buffer.
func (t *Text) Append(s string) {
	if t == nil {
		return
	}
	t.raw += s
}

// Save writes the buffer back as Shift-JIS.
func (t *Text) Save() error {
	if t == nil {
		return errors.New("save invalid property file")
	}
	data, err := encode(t.raw)
	if err != nil {
		return fmt.Errorf("encode property file %s: %w", t.path, err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("write property file %s: %w", t.path, err)
	}
	return nil
}
