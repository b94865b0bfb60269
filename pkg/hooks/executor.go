package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/treeline/pkg/debug"
)

// HookResult records the outcome of a single hook execution.
type HookResult struct {
	Hook     string        `json:"hook"`
	Phase    HookPhase     `json:"phase"`
	Success  bool          `json:"success"`
	Error    error         `json:"-"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Executor runs configured hooks with the export context in their
// environment. Results accumulate across phases.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []HookResult
}

// NewExecutor creates an executor for the given configuration and context.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, ctx: ctx}
}

// RunPreExport runs pre-export hooks in order. A failing hook with
// on_error "fail" stops the run and cancels the export.
func (e *Executor) RunPreExport() error {
	for _, h := range e.config.Hooks.PreExport {
		res := e.runHook(h, PreExport)
		e.results = append(e.results, res)
		if !res.Success && h.OnError != "continue" {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, res.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook even when earlier ones
// fail; the export is already written at this point. The first failure
// of a hook with on_error "fail" is returned after the run.
func (e *Executor) RunPostExport() error {
	var firstErr error
	for _, h := range e.config.Hooks.PostExport {
		res := e.runHook(h, PostExport)
		e.results = append(e.results, res)
		if !res.Success && h.OnError == "fail" && firstErr == nil {
			firstErr = fmt.Errorf("post-export hook %q failed: %w", h.Name, res.Error)
		}
	}
	return firstErr
}

// Results returns the outcomes recorded so far, in execution order.
func (e *Executor) Results() []HookResult {
	return e.results
}

// runHook executes a single hook through the shell with the export
// context and the hook's own env (values expanded against the process
// environment) appended.
func (e *Executor) runHook(h Hook, phase HookPhase) HookResult {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = append(os.Environ(), e.ctx.ToEnv()...)
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, os.ExpandEnv(v)))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := HookResult{
		Hook:     h.Name,
		Phase:    phase,
		Success:  err == nil,
		Error:    err,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.Success = false
		res.Error = fmt.Errorf("timed out after %s", timeout)
	}
	debug.Log("hook %s/%s: success=%v in %s", phase, h.Name, res.Success, res.Duration)
	return res
}

// Summary renders a short report of all recorded results. Failure
// details include stderr, truncated to keep the report one screen tall.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}

	succeeded, failed := 0, 0
	for _, r := range e.results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hooks: %d succeeded, %d failed\n", succeeded, failed)
	for _, r := range e.results {
		if r.Success {
			continue
		}
		fmt.Fprintf(&sb, "  %s %s (%s)\n", r.Phase, r.Hook, r.Duration.Round(time.Millisecond))
		if r.Error != nil {
			fmt.Fprintf(&sb, "    error: %v\n", r.Error)
		}
		if r.Stderr != "" {
			fmt.Fprintf(&sb, "    stderr: %s\n", truncate(r.Stderr, 200))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RunHooks loads hook configuration from projectDir and returns an
// executor ready to run, or (nil, nil) when hooks are disabled or none
// are configured.
func RunHooks(projectDir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}

	loader := NewLoader(WithProjectDir(projectDir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	for _, w := range loader.Warnings() {
		debug.Log("hooks: %s", w)
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	return NewExecutor(loader.Config(), ctx), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
