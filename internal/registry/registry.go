// Package registry picks the right event source for a file by sniffing its
// header.
package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/txreplay/internal/source"
)

// Registry holds all registered event sources.
type Registry struct {
	sources []source.Source
}

// New creates a registry with the built-in sources.
func New() *Registry {
	return &Registry{
		sources: []source.Source{
			source.NewCSV(),
			source.NewOFX(),
		},
	}
}

// Register adds a custom source.
func (r *Registry) Register(s source.Source) {
	r.sources = append(r.sources, s)
}

// Find returns the source for this file, judged from the path and the first
// 512 bytes of content. That is enough to see the CSV header row or the OFX
// header markers.
func (r *Registry) Find(path string) (source.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	// Short reads are fine; small event files may be under 512 bytes.
	header = header[:n]

	for _, s := range r.sources {
		if s.CanRead(path, header) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no event source found for file: %s", path)
}

// ListSources returns the names of all registered sources.
func (r *Registry) ListSources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}
