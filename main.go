// declmap indexes the top-level declarations of a Go codebase and answers
// lookup, search, summary and dependency queries about it.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/declmap/internal/config"
	"github.com/phobologic/declmap/internal/index"
	"github.com/phobologic/declmap/internal/repo"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// app holds the global flags and the state shared by subcommands.
type app struct {
	stdout, stderr io.Writer

	root       string
	configFile string
	engine     string
	format     string
	verbose    bool
	progress   bool

	cfg     *config.Config
	project repo.Project
	log     *log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "declmap",
		Short: "Index and query the declarations of a Go codebase",
		Long: `declmap scans the Go sources under a root directory, recognizes their
exported top-level declarations and answers queries about them: exact
lookup, ranked search, per-module summaries, dependencies and relations.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("declmap {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.root, "root", ".", "directory to scan")
	flags.StringVar(&a.configFile, "config", "", "config file (default is <root>/.declmap/config.yml)")
	flags.StringVar(&a.engine, "engine", "", "declaration scanner: text or treesitter")
	flags.StringVar(&a.format, "format", "", "output format: toon, json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log scan details to stderr")
	flags.BoolVar(&a.progress, "progress", false, "show a progress bar while scanning")

	cmd.AddCommand(
		a.searchCmd(),
		a.lookupCmd(),
		a.listCmd(),
		a.summaryCmd(),
		a.modulesCmd(),
		a.depsCmd(),
		a.relationsCmd(),
		a.watchCmd(),
		newInitCmd(stdout, stderr),
	)
	return cmd
}

// skipSetup lists commands that do not scan a root.
var skipSetup = map[string]bool{"init": true, "help": true, "completion": true}

// setup validates the root, loads configuration and applies flag overrides.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if skipSetup[cmd.Name()] {
		return nil
	}

	a.log = log.New(io.Discard, "", 0)
	if a.verbose {
		a.log = log.New(a.stderr, "declmap: ", 0)
	}

	project, err := repo.Locate(a.root)
	switch {
	case errors.Is(err, repo.ErrNoProject):
		a.log.Printf("warning: %v; module graph edges are unavailable", err)
		project.Dir = a.root
	case err != nil:
		return fmt.Errorf("root path: %w", err)
	}
	a.project = project

	cfg, err := config.NewLoader(a.project.Dir, a.configFile).Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine = a.engine
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = a.format
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	a.cfg = cfg
	return nil
}

// newIndex returns an index configured from the loaded settings.
func (a *app) newIndex() *index.Index {
	opts := index.Options{
		Engine:    a.cfg.Engine,
		Exclude:   a.cfg.Exclude,
		Gitignore: a.cfg.Gitignore,
		Logger:    a.log,
	}
	if a.progress {
		var bar *progressbar.ProgressBar
		opts.OnProgress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(a.stderr),
					progressbar.OptionSetDescription("Scanning files"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionThrottle(65*time.Millisecond),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprintln(a.stderr)
					}),
				)
			}
			_ = bar.Set(done)
		}
	}
	return index.New(a.project.Dir, opts)
}

// emit writes v in the configured format. toonText renders the TOON form.
func (a *app) emit(v any, toonText func() string) error {
	switch a.cfg.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(a.stdout, toonText())
		return err
	}
}
