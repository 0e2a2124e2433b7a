package api

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/logs"
)

// Source is one relayed log file
type Source struct {
	Name    string
	Path    string
	manager *logs.Manager
}

// Registry owns the tailer and line store of every configured source
type Registry struct {
	sources map[string]*Source
	names   []string
	logger  *slog.Logger
	tailCfg logs.TailerConfig
}

// NewRegistry creates a registry for the given name -> path map
func NewRegistry(paths map[string]string, mgrCfg logs.ManagerConfig, tailCfg logs.TailerConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		sources: make(map[string]*Source, len(paths)),
		logger:  logger,
		tailCfg: tailCfg,
	}
	for name, path := range paths {
		r.sources[name] = &Source{Name: name, Path: path, manager: logs.NewManager(mgrCfg)}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Names returns the configured source names, sorted
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Lookup returns the named source
func (r *Registry) Lookup(name string) (*Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Run tails every source until ctx is cancelled
func (r *Registry) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range r.names {
		src := r.sources[name]
		cfg := r.tailCfg
		cfg.Source = src.Name
		cfg.Path = src.Path
		cfg.Logger = r.logger

		tailer := logs.NewTailer(cfg, src.manager)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tailer.Run(ctx); err != nil {
				r.logger.Error("tailer stopped", "source", src.Name, "error", err)
			}
		}()
	}
	wg.Wait()
}

// Health reports whether each source file exists and is readable
func (r *Registry) Health() map[string]domain.SourceHealth {
	out := make(map[string]domain.SourceHealth, len(r.sources))
	for _, name := range r.names {
		out[name] = fileHealth(name, r.sources[name].Path)
	}
	return out
}

// Close ends every open subscription
func (r *Registry) Close() {
	for _, s := range r.sources {
		s.manager.Close()
	}
}

func fileHealth(name, path string) domain.SourceHealth {
	h := domain.SourceHealth{Name: name, Path: path, Status: "error"}

	if _, err := os.Stat(path); err != nil {
		return h
	}
	h.Exists = true

	if f, err := os.Open(path); err == nil {
		_ = f.Close()
		h.Readable = true
		h.Status = "ok"
	}
	return h
}
