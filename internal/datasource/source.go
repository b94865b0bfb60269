// Package datasource discovers, validates and selects outline data
// sources for treeline. A data directory may hold a SQLite outline
// database, nested JSON documents and flat JSONL exports side by side;
// the package picks the freshest valid source and loads nodes from it.
package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// SourceType identifies the kind of data source.
type SourceType string

const (
	// SourceTypeSQLite is an outline database (outline.db).
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a nested JSON outline document.
	SourceTypeJSON SourceType = "json"
	// SourceTypeJSONL is a flat node-per-line JSONL file.
	SourceTypeJSONL SourceType = "jsonl"
)

// Priority values per source type (higher = more authoritative).
const (
	PrioritySQLite = 100
	PriorityJSON   = 80
	PriorityJSONL  = 50
)

// DataDirEnvVar overrides the data directory lookup.
const DataDirEnvVar = "TREELINE_DATA_DIR"

// DataSource is one candidate source of outline nodes.
type DataSource struct {
	// Type identifies the source kind.
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file.
	Path string `json:"path"`
	// Priority breaks ties when timestamps are equal (higher = preferred).
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source.
	ModTime time.Time `json:"mod_time"`
	// Valid reports whether the source passed validation.
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed.
	ValidationError string `json:"validation_error,omitempty"`
	// NodeCount is the number of nodes in the source, set during
	// validation.
	NodeCount int `json:"node_count"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, nodes=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.NodeCount, status)
}

// DiscoveryOptions configures source discovery.
type DiscoveryOptions struct {
	// DataDir is the treeline data directory (auto-detected if empty).
	DataDir string
	// WorkDir anchors auto-detection (cwd if empty).
	WorkDir string
	// ValidateAfterDiscovery parses each discovered source and records
	// the outcome.
	ValidateAfterDiscovery bool
	// IncludeInvalid keeps sources that failed validation in the result.
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery.
	Verbose bool
	// Logger receives log messages when Verbose is true.
	Logger func(msg string)
}

// ResolveDataDir returns the data directory, respecting TREELINE_DATA_DIR.
// Without the override it is .treeline under workDir (or the cwd).
func ResolveDataDir(workDir string) (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	return filepath.Join(workDir, ".treeline"), nil
}

// DiscoverSources finds all potential outline sources in the data
// directory, newest first.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = ResolveDataDir(opts.WorkDir)
		if err != nil {
			return nil, err
		}
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", dataDir))
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if skipArtifact(name) {
			continue
		}

		typ, priority, ok := classifySource(name)
		if !ok {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		sources = append(sources, DataSource{
			Type:     typ,
			Path:     filepath.Join(dataDir, name),
			Priority: priority,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found %s: %s (mod=%s)", typ, name, info.ModTime().Format(time.RFC3339)))
		}
	}

	if opts.ValidateAfterDiscovery {
		validateSources(sources, opts)
	}
	if opts.ValidateAfterDiscovery && !opts.IncludeInvalid {
		var valid []DataSource
		for _, s := range sources {
			if s.Valid {
				valid = append(valid, s)
			}
		}
		sources = valid
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}
	return sources, nil
}

// classifySource maps a file name to its source type and priority.
// Unknown extensions report ok=false and are skipped by discovery.
func classifySource(name string) (typ SourceType, priority int, ok bool) {
	switch {
	case strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".sqlite"):
		return SourceTypeSQLite, PrioritySQLite, true
	case strings.HasSuffix(name, ".json"):
		return SourceTypeJSON, PriorityJSON, true
	case strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".ndjson"):
		return SourceTypeJSONL, PriorityJSONL, true
	}
	return "", 0, false
}

// skipArtifact filters backups and editor leftovers out of discovery.
func skipArtifact(name string) bool {
	return strings.Contains(name, ".backup") ||
		strings.Contains(name, ".orig") ||
		strings.Contains(name, ".tmp") ||
		strings.HasPrefix(name, ".")
}

// validateSources runs ValidateSource over all sources concurrently.
// Individual validation failures are recorded on the source, never
// propagated.
func validateSources(sources []DataSource, opts DiscoveryOptions) {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(8)

	for i := range sources {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
			return nil
		})
	}
	// Errors are captured per source; Wait can only return nil here.
	_ = g.Wait()
}

// ValidateSource parses the source and checks that its nodes form a
// well-formed outline. On success Valid and NodeCount are set; on failure
// ValidationError records the cause.
func ValidateSource(s *DataSource) error {
	nodes, err := loadNodesFromSource(*s)
	if err == nil {
		_, err = tree.New(nodes)
	}
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.NodeCount = len(nodes)
	return nil
}

// SelectBestSource returns the most authoritative valid source: the list
// is already newest-first with priority tiebreaks, so the first valid
// entry wins.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("no valid source among %d candidates", len(sources))
}
