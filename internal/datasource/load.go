package datasource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// LoadNodes performs smart multi-source detection and loading for the
// work directory: discover every source in the data directory, validate
// them, pick the freshest valid one and load its nodes. The database is
// preferred over file sources at equal freshness since it reflects the
// most recent edits.
func LoadNodes(workDir string) ([]tree.Node, error) {
	dataDir, err := ResolveDataDir(workDir)
	if err != nil {
		return nil, err
	}
	return LoadNodesFromDir(dataDir)
}

// LoadNodesFromDir performs smart source detection within a known data
// directory, for callers that already resolved the path.
func LoadNodesFromDir(dataDir string) ([]tree.Node, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		DataDir:                dataDir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         false,
	})
	if err != nil {
		return nil, err
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(best)
}

// LoadFromSource loads nodes from a specific DataSource, dispatching on
// the source type.
func LoadFromSource(source DataSource) ([]tree.Node, error) {
	return loadNodesFromSource(source)
}

// SourceForPath builds a DataSource for an explicit file path, bypassing
// discovery. The type comes from the extension.
func SourceForPath(path string) (DataSource, error) {
	typ, priority, ok := classifySource(filepath.Base(path))
	if !ok {
		return DataSource{}, fmt.Errorf("unsupported outline format: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("failed to stat outline source: %w", err)
	}
	return DataSource{
		Type:     typ,
		Path:     path,
		Priority: priority,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}, nil
}

// LoadPath loads nodes from an explicit file path, used by the -data
// flag and live reload.
func LoadPath(path string) ([]tree.Node, error) {
	source, err := SourceForPath(path)
	if err != nil {
		return nil, err
	}
	return loadNodesFromSource(source)
}

func loadNodesFromSource(source DataSource) ([]tree.Node, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadNodes()
	case SourceTypeJSON, SourceTypeJSONL:
		return ReadNodesFile(source.Path)
	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
