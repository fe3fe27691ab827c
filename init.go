package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "<!-- declmap:start -->"
	sentinelEnd   = "<!-- declmap:end -->"
)

// newInitCmd builds the `declmap init` subcommand, which writes (or updates)
// a declmap usage section in a CLAUDE.md file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init [path-to-CLAUDE.md]",
		Short: "Write a declmap usage section to CLAUDE.md",
		Long: `Write a declmap usage section to a CLAUDE.md file. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path-to-CLAUDE.md defaults to ./CLAUDE.md.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args, dryRun, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

func runInit(args []string, dryRun bool, stdout, stderr io.Writer) error {
	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := "CLAUDE.md"
	if len(args) > 0 {
		path = args[0]
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote declmap section to %s\n", path)
	return nil
}

// generateSection returns the full sentinel-wrapped declmap documentation block.
func generateSection() string {
	body := `## declmap: Go declaration index

Use ` + "`declmap`" + ` via the Bash tool to find where Go types, functions and
constants are declared instead of grepping for them.

**Availability:** Check with ` + "`declmap --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
declmap search store open                   # ranked search over names, signatures, docs
declmap search --kind contract --module api reader
declmap lookup Store                        # full declaration: signature, block, members
declmap list --callables --module api       # index views by module, kind, values or callables
declmap summary internal                    # counts, files and highlights of a module
declmap modules                             # declaration counts for every module
declmap deps --graph                        # imports, exports and internal module edges
declmap relations ReadCloser                # embedded types and declarations that mention it
declmap --root /path/to/repo --format json lookup Open
` + "```" + `

**Configuration:** ` + "`.declmap/config.yml`" + ` under the root sets defaults
(` + "`engine`" + `, ` + "`exclude`" + `, ` + "`limit`" + `, ` + "`format`" + `); ` + "`DECLMAP_*`" + ` environment
variables override it.

**How to use the output:**

1. **Search before reading.** ` + "`declmap search`" + ` ranks exact name matches
   first, then partial name, signature, module and doc matches.

2. **Use ` + "`lookup`" + ` instead of opening files** to see a type's fields or an
   interface's methods; the output includes the file and line.

3. **Use ` + "`deps --graph`" + ` to see which modules depend on which** before
   tracing imports by hand.

4. **Only fall back to Glob/Grep for things declmap cannot answer**, such as
   call sites or unexported helpers.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
