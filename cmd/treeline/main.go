package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeline/internal/datasource"
	"github.com/vanderheijden86/treeline/pkg/analysis"
	"github.com/vanderheijden86/treeline/pkg/config"
	"github.com/vanderheijden86/treeline/pkg/debug"
	"github.com/vanderheijden86/treeline/pkg/export"
	"github.com/vanderheijden86/treeline/pkg/hooks"
	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"
	"github.com/vanderheijden86/treeline/pkg/ui"
	"github.com/vanderheijden86/treeline/pkg/version"
	"github.com/vanderheijden86/treeline/pkg/watcher"
)

func main() {
	dataPath := flag.String("data", "", "Outline file to open (.jsonl, .json, .db); skips discovery")
	watchFlag := flag.Bool("watch", true, "Reload when the outline source changes on disk")
	statsFlag := flag.Bool("stats", false, "Print outline shape statistics and exit")
	exportPath := flag.String("export", "", "Write the outline to a file (.md, .mmd, .svg, .png) and exit")
	wizardFlag := flag.Bool("wizard", false, "Run the interactive export wizard and exit")
	sourcesFlag := flag.Bool("sources", false, "List discovered data sources, check their consistency, and exit")
	noHooks := flag.Bool("no-hooks", false, "Skip .treeline/hooks.yaml export hooks")
	multiSelect := flag.Bool("multi-select", true, "Allow more than one selected node")
	propagate := flag.Bool("propagate", true, "Selecting a branch selects its subtree")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: treeline [options] [outline-name]")
		fmt.Println("\nA TUI for tri-state outline selection.")
		fmt.Println("Without -data, sources are discovered in the data directory;")
		fmt.Println("a positional name opens an outline registered in config.yaml.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("treeline %s\n", version.Version)
		os.Exit(0)
	}

	if *sourcesFlag {
		if err := listSources("", os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing sources: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load app config for selection preferences and registered outlines
	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		appCfg = config.DefaultConfig()
	}

	nodes, sourcePath, err := loadOutline(*dataPath, flag.Arg(0), appCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading outline: %v\n", err)
		fmt.Fprintln(os.Stderr, "Point treeline at a source with -data, or register outlines in config.yaml.")
		os.Exit(1)
	}
	if len(nodes) == 0 {
		fmt.Println("Outline is empty. Add some nodes first!")
		os.Exit(0)
	}

	// Engine options: config file first, explicit flags override
	engineCfg := appCfg.TreeConfig()
	watchEnabled := appCfg.Data.WatchEnabled()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "multi-select":
			engineCfg.MultiSelect = *multiSelect
		case "propagate":
			engineCfg.PropagateSelect = *propagate
			engineCfg.PropagateSelectUpwards = *propagate
		case "watch":
			watchEnabled = *watchFlag
		}
	})
	engineCfg.DefaultExpandedIDs = expandToDepth(nodes, appCfg.UI.ExpandDepth)

	engine, err := tree.NewEngine(nodes, engineCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building outline: %v\n", err)
		os.Exit(1)
	}

	if *statsFlag {
		stats := analysis.AnalyzeShape(engine.Tree())
		fmt.Print(stats.Summary())
		if path := analysis.DeepestPath(engine.Tree()); len(path) > 1 {
			fmt.Printf("Deepest path: %s\n", strings.Join(path, "/"))
		}
		os.Exit(0)
	}

	if *exportPath != "" {
		exec, err := loadExportHooks(engine, *exportPath, exportFormat(*exportPath), *noHooks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export hooks failed: %v\n", err)
			os.Exit(1)
		}
		if err := exportOutline(engine, *exportPath, sourcePath); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		runPostExportHooks(exec)
		fmt.Printf("Exported %s\n", *exportPath)
		os.Exit(0)
	}

	if *wizardFlag {
		w := export.NewWizard(sourcePath)
		plan, err := w.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export wizard cancelled: %v\n", err)
			os.Exit(1)
		}
		exec, err := loadExportHooks(engine, plan.OutputPath, plan.Format, *noHooks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export hooks failed: %v\n", err)
			os.Exit(1)
		}
		st := engine.State()
		result, err := w.Execute(engine.Tree(), &st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		runPostExportHooks(exec)
		fmt.Printf("Exported %s (%s)\n", result.OutputPath, result.Format)
		os.Exit(0)
	}

	// Launch TUI
	m := ui.NewModel(engine).WithConfig(appCfg).WithDataPath(sourcePath)

	if watchEnabled && sourcePath != "" {
		w, err := watcher.NewWatcher(sourcePath,
			watcher.WithDebounceDuration(time.Duration(appCfg.Data.Debounce)),
			watcher.WithPollInterval(time.Duration(appCfg.Data.PollInterval)),
		)
		if err == nil {
			if err := w.Start(); err == nil {
				m = m.WithWatcher(w)
			} else {
				debug.Log("watcher start failed: %v", err)
			}
		} else {
			debug.Log("watcher init failed: %v", err)
		}
	}
	defer m.Stop()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running treeline: %v\n", err)
		os.Exit(1)
	}

	for _, s := range metrics.AllTimingStats() {
		debug.Log("timing %s: count=%d avg=%.2fms max=%.2fms", s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
}

// loadOutline resolves the node source: an explicit -data path, a named
// outline from the config, or discovery in the data directory. The
// returned path is what live reload re-reads.
func loadOutline(dataPath, outlineName string, cfg config.Config) ([]tree.Node, string, error) {
	if dataPath != "" {
		nodes, err := datasource.LoadPath(dataPath)
		return nodes, dataPath, err
	}

	if outlineName != "" {
		o := cfg.FindOutline(outlineName)
		if o == nil {
			// A bare digit opens the outline favorited on that number key.
			if n, err := strconv.Atoi(outlineName); err == nil && n >= 1 && n <= 9 {
				o = cfg.FavoriteOutline(n)
			}
		}
		if o == nil {
			return nil, "", fmt.Errorf("no outline named %q registered in %s", outlineName, config.ConfigPath())
		}
		path := o.ResolvedPath()
		nodes, err := datasource.LoadPath(path)
		return nodes, path, err
	}

	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		return nil, "", err
	}
	best, err := datasource.SelectBestSource(sources)
	if err != nil {
		return nil, "", err
	}
	nodes, err := datasource.LoadFromSource(best)
	return nodes, best.Path, err
}

// listSources prints every discovered source, including invalid ones,
// then diffs the valid ones pairwise and prints any disagreements. An
// empty dataDir falls back to the usual data directory resolution.
func listSources(dataDir string, out io.Writer) error {
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		DataDir:                dataDir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
	})
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(out, "No sources found. Add an outline under .treeline/ or set TREELINE_DATA_DIR.")
		return nil
	}
	for _, s := range sources {
		fmt.Fprintln(out, s.String())
	}

	diffs, err := datasource.CheckAllSourcesConsistent(sources, datasource.DefaultDiffOptions())
	if err != nil {
		return err
	}
	for _, d := range diffs {
		fmt.Fprint(out, d.Summary())
	}
	return nil
}

// expandToDepth returns the branch ids to open at startup: every branch
// shallower than depth levels. Invalid node lists return nil and leave
// the error to NewEngine.
func expandToDepth(nodes []tree.Node, depth int) []string {
	if depth <= 0 {
		return nil
	}
	t, err := tree.New(nodes)
	if err != nil {
		return nil
	}
	var ids []string
	for _, id := range t.IDs() {
		if t.IsBranch(id) && t.Depth(id) < depth {
			ids = append(ids, id)
		}
	}
	return ids
}

// exportOutline writes a headless export, picking the format from the
// output extension.
func exportOutline(engine *tree.Engine, outPath, sourcePath string) error {
	t := engine.Tree()
	st := engine.State()
	title := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if title == "" || title == "." {
		title = "Outline"
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".md", ".markdown":
		doc, err := export.GenerateMarkdown(t, &st, title)
		if err != nil {
			return err
		}
		return os.WriteFile(outPath, []byte(doc), 0o644)
	case ".mmd", ".mermaid":
		diagram := export.GenerateMermaidOutline(t, &st, export.MermaidConfig{ShowEmptyNode: true})
		return os.WriteFile(outPath, []byte(diagram), 0o644)
	case ".svg", ".png":
		return export.SaveOutlineSnapshot(export.OutlineSnapshotOptions{
			Path:   outPath,
			Title:  title,
			Source: sourcePath,
			Tree:   t,
			State:  &st,
		})
	default:
		return fmt.Errorf("unsupported export format %q (use .md, .mmd, .svg or .png)", filepath.Ext(outPath))
	}
}

// exportFormat maps an output extension to the hook context format name.
func exportFormat(outPath string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outPath), "."))
	switch ext {
	case "md", "markdown":
		return "markdown"
	case "mmd", "mermaid":
		return "mermaid"
	}
	return ext
}

// loadExportHooks loads .treeline/hooks.yaml and runs the pre-export
// phase. A pre-export failure cancels the export.
func loadExportHooks(engine *tree.Engine, outPath, format string, noHooks bool) (*hooks.Executor, error) {
	st := engine.State()
	exec, err := hooks.RunHooks("", hooks.ExportContext{
		ExportPath:    outPath,
		ExportFormat:  format,
		NodeCount:     engine.Tree().Len(),
		SelectedCount: st.SelectedIDs.Len(),
		Timestamp:     time.Now(),
	}, noHooks)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, nil
	}
	if err := exec.RunPreExport(); err != nil {
		return nil, err
	}
	return exec, nil
}

// runPostExportHooks runs the post-export phase. Failures are reported
// but never undo a finished export.
func runPostExportHooks(exec *hooks.Executor) {
	if exec == nil {
		return
	}
	if err := exec.RunPostExport(); err != nil {
		fmt.Fprintln(os.Stderr, exec.Summary())
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TREELINE_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TREELINE_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
