// Package export renders outlines and their selection state to shareable
// formats: markdown task lists, Mermaid diagrams, and SVG/PNG snapshots.
//
// This file implements the interactive export wizard for the --export flag.
// It guides users through picking a format and writing the export to disk.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/treeline/pkg/config"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

// WizardConfig holds configuration for the export wizard.
type WizardConfig struct {
	Format      string `json:"format"` // "markdown", "svg", "png", "mermaid"
	Title       string `json:"title"`
	VisibleOnly bool   `json:"visible_only,omitempty"` // diagram formats: skip rows under collapsed branches
	Preset      string `json:"preset,omitempty"`       // snapshot layout: "compact" or "roomy"
	OutputPath  string `json:"output_path,omitempty"`
}

// WizardResult contains the result of running the wizard.
type WizardResult struct {
	OutputPath string
	Format     string
}

// Wizard handles the interactive export flow.
type Wizard struct {
	config      *WizardConfig
	outlinePath string
	isRerun     bool // true when re-exporting with saved settings
}

// NewWizard creates a new export wizard for the given outline file.
func NewWizard(outlinePath string) *Wizard {
	return &Wizard{
		config: &WizardConfig{
			Format: "markdown",
			Preset: "compact",
		},
		outlinePath: outlinePath,
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// offerSavedConfig asks if the user wants to use previously saved settings
func (w *Wizard) offerSavedConfig(saved *WizardConfig) (bool, error) {
	fmt.Println("Found previous export configuration:")
	fmt.Println("────────────────────────────────────────")
	fmt.Printf("  Format: %s\n", saved.Format)
	if saved.Title != "" {
		fmt.Printf("  Title:  %s\n", saved.Title)
	}
	if saved.OutputPath != "" {
		fmt.Printf("  Output: %s\n", saved.OutputPath)
	}
	fmt.Println("")

	var useSaved bool = true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Re-export with these settings?").
				Description("Select No to configure a new export").
				Value(&useSaved).
				Affirmative("Yes, re-export").
				Negative("No, reconfigure"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	fmt.Println("")
	return useSaved, nil
}

// Run executes the interactive wizard flow. It collects configuration only;
// the caller performs the export via Execute once an engine state is loaded.
func (w *Wizard) Run() (*WizardResult, error) {
	w.printBanner()

	// Check for saved configuration first
	savedConfig, err := LoadWizardConfig()
	if err == nil && savedConfig != nil && savedConfig.Format != "" {
		useSaved, err := w.offerSavedConfig(savedConfig)
		if err != nil {
			return nil, err
		}
		if useSaved {
			w.config = savedConfig
			w.isRerun = true

			fmt.Println("Using saved configuration...")
			fmt.Println("")

			return &WizardResult{
				OutputPath: w.config.OutputPath,
				Format:     w.config.Format,
			}, nil
		}
	}

	// Step 1: Export configuration
	if err := w.collectExportOptions(); err != nil {
		return nil, err
	}

	// Step 2: Output format
	if err := w.collectFormat(); err != nil {
		return nil, err
	}

	// Step 3: Format-specific configuration
	if err := w.collectFormatConfig(); err != nil {
		return nil, err
	}

	// Step 4: Output path
	if err := w.collectOutputPath(); err != nil {
		return nil, err
	}

	return &WizardResult{
		OutputPath: w.config.OutputPath,
		Format:     w.config.Format,
	}, nil
}

// GetConfig returns the collected wizard configuration.
func (w *Wizard) GetConfig() *WizardConfig {
	return w.config
}

func (w *Wizard) printBanner() {
	fmt.Println("")
	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║           treeline → Outline Export Wizard                       ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Println("║  This wizard will:                                               ║")
	fmt.Println("║    1. Choose an export format (markdown, SVG, PNG, Mermaid)      ║")
	fmt.Println("║    2. Configure the title and layout                             ║")
	fmt.Println("║    3. Write the export next to your outline                      ║")
	fmt.Println("║                                                                  ║")
	fmt.Println("║  Press Ctrl+C anytime to cancel                                  ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println("")
}

func (w *Wizard) collectExportOptions() error {
	fmt.Println("Step 1: Export Configuration")
	fmt.Println("────────────────────────────")

	defaultTitle := suggestTitle(w.outlinePath)
	title := defaultTitle

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Export title").
				Value(&title).
				Placeholder(defaultTitle),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if title != "" {
		w.config.Title = title
	} else {
		w.config.Title = defaultTitle
	}

	fmt.Println("")
	return nil
}

func (w *Wizard) collectFormat() error {
	fmt.Println("Step 2: Output Format")
	fmt.Println("────────────────────────────")

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How do you want to export?").
				Options(
					huh.NewOption("Markdown task list (checkboxes preserve selection)", "markdown"),
					huh.NewOption("SVG snapshot (rows colored by selection)", "svg"),
					huh.NewOption("PNG snapshot (rows colored by selection)", "png"),
					huh.NewOption("Mermaid diagram (flowchart of the outline)", "mermaid"),
				).
				Value(&w.config.Format),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	fmt.Println("")
	return nil
}

func (w *Wizard) collectFormatConfig() error {
	switch w.config.Format {
	case "svg", "png":
		return w.collectSnapshotConfig()
	case "mermaid":
		return w.collectMermaidConfig()
	}
	return nil
}

func (w *Wizard) collectSnapshotConfig() error {
	fmt.Println("Step 3: Snapshot Configuration")
	fmt.Println("────────────────────────────")

	preset := w.config.Preset
	if preset == "" {
		preset = "compact"
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Row layout").
				Options(
					huh.NewOption("Compact (dense rows)", "compact"),
					huh.NewOption("Roomy (wider rows, more spacing)", "roomy"),
				).
				Value(&preset),
			huh.NewConfirm().
				Title("Only include visible rows?").
				Description("Skip rows hidden under collapsed branches").
				Value(&w.config.VisibleOnly),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	w.config.Preset = preset

	fmt.Println("")
	return nil
}

func (w *Wizard) collectMermaidConfig() error {
	fmt.Println("Step 3: Diagram Configuration")
	fmt.Println("────────────────────────────")

	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Only include visible rows?").
				Description("Skip rows hidden under collapsed branches").
				Value(&w.config.VisibleOnly),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	fmt.Println("")
	return nil
}

func (w *Wizard) collectOutputPath() error {
	fmt.Println("Step 4: Output Path")
	fmt.Println("────────────────────────────")

	defaultPath := suggestOutputPath(w.outlinePath, w.config.Format)
	outputPath := defaultPath

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output file").
				Value(&outputPath).
				Placeholder(defaultPath),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if outputPath != "" {
		w.config.OutputPath = outputPath
	} else {
		w.config.OutputPath = defaultPath
	}

	fmt.Println("")
	return nil
}

// Execute performs the configured export against the given outline and state.
func (w *Wizard) Execute(t *tree.Tree, st *tree.State) (*WizardResult, error) {
	cfg := w.config
	path := cfg.OutputPath
	if path == "" {
		return nil, fmt.Errorf("output path not set")
	}

	switch cfg.Format {
	case "markdown":
		doc, err := GenerateMarkdown(t, st, cfg.Title)
		if err != nil {
			return nil, err
		}
		if err := writeExportFile(path, []byte(doc)); err != nil {
			return nil, err
		}
	case "svg", "png":
		err := SaveOutlineSnapshot(OutlineSnapshotOptions{
			Path:        path,
			Format:      cfg.Format,
			Title:       cfg.Title,
			Preset:      cfg.Preset,
			Source:      w.outlinePath,
			VisibleOnly: cfg.VisibleOnly,
			Tree:        t,
			State:       st,
		})
		if err != nil {
			return nil, err
		}
	case "mermaid":
		diagram := GenerateMermaidOutline(t, st, MermaidConfig{
			VisibleOnly:   cfg.VisibleOnly,
			ShowEmptyNode: true,
		})
		if err := writeExportFile(path, []byte(diagram)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", cfg.Format)
	}

	return &WizardResult{OutputPath: path, Format: cfg.Format}, nil
}

func writeExportFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// suggestTitle derives a human title from the outline file name.
func suggestTitle(outlinePath string) string {
	if outlinePath == "" {
		return "Outline"
	}
	base := filepath.Base(outlinePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "Outline"
	}
	return base
}

// suggestOutputPath places the export next to the outline file, with an
// extension matching the chosen format.
func suggestOutputPath(outlinePath, format string) string {
	ext := ".md"
	switch format {
	case "svg":
		ext = ".svg"
	case "png":
		ext = ".png"
	case "mermaid":
		ext = ".mmd"
	}

	if outlinePath == "" {
		return "outline-export" + ext
	}
	base := strings.TrimSuffix(outlinePath, filepath.Ext(outlinePath))
	return base + "-export" + ext
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved config
		}
		return nil, err
	}

	var wc WizardConfig
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, err
	}

	return &wc, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(wc *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(wc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
