// Package output serializes rolled-up annotations and publishes them
// atomically per pipeline variant.
package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"rollupload/pkg/domain"
)

// ErrOutput marks staging and publish failures; they are fatal for the variant.
var ErrOutput = errors.New("output error")

// Params carries the per-variant values a format needs besides the records.
type Params struct {
	Variant      domain.Variant
	PropertyTerm string
	LoaderUser   string
}

// Format renders one stream of records.
type Format interface {
	Name() string
	ContentType() string
	Write(w io.Writer, p Params, records []domain.RolledUpAnnotation) error
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{}
)

// Register makes a format selectable by name. Registering a name twice panics.
func Register(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	if _, dup := formats[f.Name()]; dup {
		panic(fmt.Sprintf("output format %s registered twice", f.Name()))
	}
	formats[f.Name()] = f
}

// Lookup returns the named format.
func Lookup(name string) (Format, error) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrOutput, name)
	}
	return f, nil
}

// Formats lists registered format names.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(rollupFormat{})
	Register(annotloadFormat{})
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// field makes a value safe for a tab-separated line.
func field(s string) string {
	return strings.TrimSpace(fieldCleaner.Replace(s))
}

func writeLine(w io.Writer, cols ...string) error {
	for i := range cols {
		cols[i] = field(cols[i])
	}
	_, err := io.WriteString(w, strings.Join(cols, "\t")+"\n")
	return err
}
