package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/declmap/internal/discover"
	"github.com/phobologic/declmap/internal/graph"
	"github.com/phobologic/declmap/internal/index"
	"github.com/phobologic/declmap/internal/model"
	"github.com/phobologic/declmap/internal/ranking"
	"github.com/phobologic/declmap/internal/relations"
	"github.com/phobologic/declmap/internal/stats"
	"github.com/phobologic/declmap/internal/toon"
	"github.com/phobologic/declmap/internal/watch"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		module string
		kind   string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Rank declarations against a free-text query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := ranking.Filters{Module: module}
			if kind != "" {
				k, ok := model.ParseKind(kind)
				if !ok {
					return fmt.Errorf("unknown kind %q", kind)
				}
				filters.Kind = k
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Limit
			}

			r, err := ranking.NewRanker(a.newIndex(), a.cfg.CacheSize)
			if err != nil {
				return err
			}
			defer r.Close()

			query := strings.Join(args, " ")
			results, err := r.Rank(query, limit, filters)
			if err != nil {
				return err
			}
			return a.emit(results, func() string { return toon.EncodeResults(query, results) })
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "only search this module")
	cmd.Flags().StringVar(&kind, "kind", "", "only search this kind (contract, record, alias, function, method, constant, variable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from config)")
	return cmd
}

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup NAME",
		Short: "Show every declaration with the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := a.newIndex().ByName(args[0])
			if err != nil {
				return err
			}
			if len(decls) == 0 {
				return fmt.Errorf("no declaration named %q", args[0])
			}
			return a.emit(decls, func() string {
				parts := make([]string, len(decls))
				for i := range decls {
					parts[i] = toon.EncodeDeclaration(&decls[i])
				}
				return strings.Join(parts, "\n\n")
			})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var (
		module    string
		kind      string
		values    bool
		callables bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declarations of one module, one kind, or one view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x := a.newIndex()
			var (
				decls []model.Declaration
				err   error
			)
			switch {
			case values:
				decls, err = x.ValuesView()
			case callables:
				decls, err = x.CallablesView()
			case kind != "":
				k, ok := model.ParseKind(kind)
				if !ok {
					return fmt.Errorf("unknown kind %q", kind)
				}
				decls, err = x.ByKind(k)
			case module != "":
				decls, err = x.ByModule(module)
			default:
				decls, err = x.Declarations()
			}
			if err != nil {
				return err
			}
			if module != "" && (values || callables || kind != "") {
				decls = slices.DeleteFunc(decls, func(d model.Declaration) bool { return d.Module != module })
			}
			return a.emit(decls, func() string { return toon.EncodeDeclarations(decls) })
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "only list this module")
	cmd.Flags().StringVar(&kind, "kind", "", "only list this kind")
	cmd.Flags().BoolVar(&values, "values", false, "list constants and variables")
	cmd.Flags().BoolVar(&callables, "callables", false, "list functions and methods")
	cmd.MarkFlagsMutuallyExclusive("values", "callables", "kind")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	var highlights int
	cmd := &cobra.Command{
		Use:   "summary MODULE",
		Short: "Summarize one module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("highlights") {
				highlights = a.cfg.Highlights
			}
			decls, err := a.newIndex().Declarations()
			if err != nil {
				return err
			}
			s := stats.Summarize(decls, args[0], highlights)
			if s.Total == 0 {
				a.log.Printf("module %q has no declarations", args[0])
			}
			return a.emit(s, func() string { return toon.EncodeSummary(&s) })
		},
	}
	cmd.Flags().IntVar(&highlights, "highlights", 0, "number of highlighted declarations (default from config)")
	return cmd
}

func (a *app) modulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "Count declarations per module and kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := a.newIndex().Declarations()
			if err != nil {
				return err
			}
			ms := stats.Modules(decls)
			return a.emit(ms, func() string { return toon.EncodeModules(ms) })
		},
	}
}

// moduleGraphReport is the structured form of `deps --graph`.
type moduleGraphReport struct {
	Dependencies []model.DependencyInfo `json:"dependencies" yaml:"dependencies"`
	Edges        []graph.Edge           `json:"edges" yaml:"edges"`
	Order        []string               `json:"order,omitempty" yaml:"order,omitempty"`
	Cycles       [][]string             `json:"cycles" yaml:"cycles"`
	Ranks        []graph.ModuleRank     `json:"ranks" yaml:"ranks"`
}

func (a *app) depsCmd() *cobra.Command {
	var withGraph bool
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Report imports and exports per module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := graph.Analyze(a.newIndex())
			if err != nil {
				return err
			}
			if !withGraph {
				return a.emit(infos, func() string { return toon.EncodeDependencies(infos) })
			}

			mg, err := graph.BuildModuleGraph(infos, a.project.ImportPath)
			if err != nil {
				return err
			}
			report := moduleGraphReport{Dependencies: infos}
			if report.Edges, err = mg.Edges(); err != nil {
				return err
			}
			if report.Cycles, err = mg.Cycles(); err != nil {
				return err
			}
			if report.Ranks, err = mg.Rank(); err != nil {
				return err
			}
			if order, err := mg.Order(); err != nil {
				a.log.Printf("warning: %v", err)
			} else {
				report.Order = order
			}
			return a.emit(report, func() string {
				return toon.EncodeDependencies(infos) + "\n" +
					toon.EncodeModuleGraph(report.Edges, report.Order, report.Cycles, report.Ranks)
			})
		},
	}
	cmd.Flags().BoolVar(&withGraph, "graph", false, "add internal module edges, order, cycles and ranks")
	return cmd
}

func (a *app) relationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relations NAME",
		Short: "Show the heuristic parents and children of a declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := a.newIndex().Declarations()
			if err != nil {
				return err
			}
			rel, ok := relations.Of(decls, args[0])
			if !ok {
				return fmt.Errorf("no declaration named %q", args[0])
			}
			return a.emit(rel, func() string { return toon.EncodeRelations(&rel) })
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the index on source changes and print module statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx)
		},
	}
}

func (a *app) watch(ctx context.Context) error {
	w := watch.New(a.project.Dir, func() (*index.Index, error) {
		return a.newIndex(), nil
	}, watch.Options{
		Discover: discover.Options{Exclude: a.cfg.Exclude, Gitignore: a.cfg.Gitignore},
		Logger:   a.log,
	})

	var emitErr error
	err := w.Run(ctx, func(idx *index.Index) {
		decls, err := idx.Declarations()
		if err != nil {
			a.log.Printf("warning: %v", err)
			return
		}
		ms := stats.Modules(decls)
		if err := a.emit(ms, func() string { return toon.EncodeModules(ms) }); err != nil {
			emitErr = err
		}
	})
	if err != nil {
		return err
	}
	return emitErr
}
