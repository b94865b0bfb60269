package datasource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

// DefaultMaxBufferSize is the maximum JSONL line size (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures node parsing from files.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed
	// lines). If nil, warnings go to os.Stderr unless TREELINE_ROBOT=1.
	WarningHandler func(string)

	// BufferSize caps the JSONL line size in bytes. Longer lines are
	// skipped with a warning. 0 means DefaultMaxBufferSize.
	BufferSize int

	// NodeFilter optionally filters parsed nodes. Return true to keep.
	NodeFilter func(*tree.Node) bool
}

func (o ParseOptions) warner() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	if os.Getenv("TREELINE_ROBOT") == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// ReadNodesFile loads nodes from path, picking the format by extension:
// .json is a nested outline document, .jsonl/.ndjson is one flat node
// per line.
func ReadNodesFile(path string) ([]tree.Node, error) {
	return ReadNodesFileWithOptions(path, ParseOptions{})
}

// ReadNodesFileWithOptions is ReadNodesFile with custom options.
func ReadNodesFileWithOptions(path string, opts ParseOptions) ([]tree.Node, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no outline found at %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outline file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	if strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".ndjson") {
		return ParseFlat(f, opts)
	}
	return ParseNested(f, opts)
}

// ParseNested parses a nested JSON outline document: a top-level array of
// nodes, children inline. The document is flattened into the flat node
// form with slash-joined path ids for nodes that carry none.
func ParseNested(r io.Reader, opts ParseOptions) ([]tree.Node, error) {
	defer metrics.Timer(metrics.OutlineParse)()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading outline document: %w", err)
	}
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var nested []tree.NestedNode
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("malformed outline document: %w", err)
	}
	nodes := tree.Flatten(tree.NestedNode{Children: nested})
	if opts.NodeFilter == nil {
		return nodes, nil
	}
	kept := nodes[:0]
	for i := range nodes {
		if opts.NodeFilter(&nodes[i]) {
			kept = append(kept, nodes[i])
		}
	}
	return kept, nil
}

// ParseFlat parses node-per-line JSONL content. Handles UTF-8 BOM
// stripping, oversized lines and per-line validation; malformed lines are
// skipped with a warning rather than failing the whole load.
func ParseFlat(r io.Reader, opts ParseOptions) ([]tree.Node, error) {
	defer metrics.Timer(metrics.OutlineParse)()

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)
	warn := opts.warner()

	var nodes []tree.Node
	lineNum := 0
	for {
		lineNum++
		// ReadLine returns the line without its terminator; isPrefix is
		// set when the line did not fit the buffer.
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading outline stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if len(line) == 0 {
			continue
		}
		if lineNum == 1 {
			line = stripBOM(line)
		}

		var node tree.Node
		if err := json.Unmarshal(line, &node); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if strings.TrimSpace(node.ID) == "" {
			warn(fmt.Sprintf("skipping node without id on line %d", lineNum))
			continue
		}
		if opts.NodeFilter != nil && !opts.NodeFilter(&node) {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// stripBOM removes the UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
