package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joshharrison/lineloom/internal/claude"
	"github.com/joshharrison/lineloom/internal/heuristic"
	"github.com/joshharrison/lineloom/internal/planner"
	"github.com/joshharrison/lineloom/internal/reporter"
	"github.com/joshharrison/lineloom/internal/server"
	"github.com/joshharrison/lineloom/internal/source"
	"github.com/joshharrison/lineloom/internal/state"
	"github.com/joshharrison/lineloom/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func balanceCmd() *cobra.Command {
	var flagExplain bool

	cmd := &cobra.Command{
		Use:   "balance <tasks-file>",
		Short: "Assign tasks to stations and report the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()

			plan, _, err := buildPlan(args[0], cfg, logger)
			if err != nil {
				return err
			}
			rpt := reporter.New(plan)

			if cfg.State.Save {
				store, err := state.Open(cfg.State.Dir)
				if err != nil {
					return err
				}
				if _, err := store.Save(plan, args[0]); err != nil {
					return fmt.Errorf("record run: %w", err)
				}
			}

			if flagOutput != "" {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(flagOutput, data, 0644); err != nil {
					return err
				}
				fmt.Printf("Wrote plan to %s\n", flagOutput)
			}

			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				ui.PrintLogo(os.Stdout)
				rpt.PrintReport(os.Stdout)
			}

			if flagExplain {
				return explain(cmd.Context(), cfg.Claude.Model, rpt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Save the JSON plan to file")
	cmd.Flags().BoolVar(&flagExplain, "explain", false, "Ask Claude for a plain-language review of the balance")
	cmd.Flags().Bool("save", true, "Record the run in the state directory")
	_ = viper.BindPFlag("state.save", cmd.Flags().Lookup("save"))

	return cmd
}

// explain renders the report without color and asks Claude to review it.
func explain(ctx context.Context, model string, rpt *reporter.Reporter) error {
	client, err := claude.NewClient("", model)
	if err != nil {
		return err
	}

	noColor := color.NoColor
	color.NoColor = true
	var buf bytes.Buffer
	rpt.PrintReport(&buf)
	color.NoColor = noColor

	text, err := client.ExplainPlan(ctx, buf.String())
	if err != nil {
		return fmt.Errorf("explain plan: %w", err)
	}
	fmt.Printf("\n💡 %s\n%s\n", ui.BoldWhite("Review:"), text)
	return nil
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <tasks-file>",
		Short: "Balance one task table with every heuristic and compare the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()

			variants := []struct{ heuristic, tieBreak string }{
				{heuristic.NameRPW, ""},
				{heuristic.NameMoodieYoung, string(heuristic.MaxTime)},
				{heuristic.NameMoodieYoung, string(heuristic.MinTime)},
			}

			var plans []*planner.BalancePlan
			for _, v := range variants {
				c := *cfg
				c.Balance.Heuristic = v.heuristic
				c.Balance.TieBreak = v.tieBreak
				plan, _, err := buildPlan(args[0], &c, logger)
				if err != nil {
					return err
				}
				plans = append(plans, plan)
			}

			if flagJSON {
				return outputJSON(plans)
			}
			reporter.PrintComparison(os.Stdout, plans)
			return nil
		},
	}

	return cmd
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz <tasks-file>",
		Short: "Print the precedence graph grouped by station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()

			plan, g, err := buildPlan(args[0], cfg, logger)
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				reporter.PrintDOT(os.Stdout, g, plan)
			case "ascii", "":
				reporter.PrintASCIIGraph(os.Stdout, g, plan)
			default:
				return fmt.Errorf("unknown format %q (ascii, dot)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve balancing over HTTP with Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("🏭 %s on %s\n", ui.BoldCyan("Lineloom serving"), ui.Bold(cfg.Server.Addr))
			fmt.Printf("   %s POST /balance?beat=N  GET /plan  GET /metrics\n", ui.Dim("routes:"))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func inferPredsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-preds <tasks-file>",
		Short: "Use Claude to infer missing precedence relations from task names",
		Long: `Sends the task table to Claude and infers precedence relations.
By default runs in dry-run mode. Use --apply to write the merged table as CSV
(to --output, or stdout).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()

			records, err := loadTasks(args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no tasks found in %s", args[0])
			}

			var result *claude.InferPredsResult
			if flagFromFile != "" {
				data, err := os.ReadFile(flagFromFile)
				if err != nil {
					return fmt.Errorf("read from-file: %w", err)
				}
				result = &claude.InferPredsResult{}
				if err := json.Unmarshal(data, result); err != nil {
					return fmt.Errorf("parse from-file: %w", err)
				}
				status("📂 Loaded %s edges from %s\n", ui.Bold(len(result.Edges)), ui.Dim(flagFromFile))
			} else {
				model := flagModel
				if model == "" {
					model = cfg.Claude.Model
				}
				client, err := claude.NewClient("", model)
				if err != nil {
					return err
				}
				client.SetPromptTemplate(cfg.Claude.PromptTemplate)

				status("🔍 Sending %s tasks to Claude for precedence inference...\n", ui.Bold(len(records)))
				result, err = client.InferPredecessors(cmd.Context(), claude.Summaries(records))
				if err != nil {
					return fmt.Errorf("infer predecessors: %w", err)
				}
			}

			merged, accepted, skipped := claude.MergeEdges(records, result.Edges)
			logger.WithPhase("infer").Info("merged inferred edges",
				"proposed", len(result.Edges), "accepted", len(accepted), "skipped", len(skipped))
			for _, s := range skipped {
				status("  %s %s\n", ui.Yellow("⏭️  SKIP:"), s.Reason)
			}

			if flagApply {
				out := os.Stdout
				if flagOutput != "" {
					f, err := os.Create(flagOutput)
					if err != nil {
						return err
					}
					defer f.Close()
					out = f
				}
				if err := source.WriteCSV(out, merged); err != nil {
					return err
				}
				status("\n🏁 Applied %s/%d precedence relations.\n", ui.BoldGreen(len(accepted)), len(result.Edges))
				return nil
			}

			if flagJSON {
				return outputJSON(struct {
					Edges   []claude.PredEdge    `json:"edges"`
					Skipped []claude.SkippedEdge `json:"skipped"`
					Summary string               `json:"summary"`
				}{accepted, skipped, result.Summary})
			}

			fmt.Printf("\n🔗 Inferred %s precedence relations (%d from Claude, %d after validation):\n\n",
				ui.Bold(len(accepted)), len(result.Edges), len(accepted))
			for _, e := range accepted {
				fmt.Printf("  %s %s before %s  %s\n", ui.Cyan("→"), ui.TaskLabel(e.PredecessorID), ui.TaskLabel(e.TaskID), ui.Dim(e.Reason))
			}
			if result.Summary != "" {
				fmt.Printf("\n💡 %s %s\n", ui.BoldWhite("Summary:"), result.Summary)
			}
			fmt.Printf("\n🎯 %s\n", ui.Yellow("Dry run. Use --apply to write the merged task table."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Write the merged task table as CSV (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default: claude.model or Sonnet)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the merged table to this file instead of stdout")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Load inferred edges from a JSON file instead of calling Claude")

	return cmd
}

// status writes progress to stderr so stdout stays clean for --apply output.
func status(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := state.Open(cfg.State.Dir)
			if err != nil {
				return err
			}
			rec, plan, err := store.Last()
			if errors.Is(err, state.ErrNoRuns) {
				fmt.Println("No balance runs recorded. Run `lineloom balance <tasks-file> --beat N` first.")
				return nil
			}
			if err != nil {
				return err
			}

			if flagJSON {
				data, err := reporter.New(plan).JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			rpt := reporter.New(plan)
			fmt.Printf("%s %s %s\n", ui.BoldCyan("📋 Last run"), ui.Bold(rec.PlanID), ui.Dim(rec.Source))
			fmt.Printf("   %s\n\n", rpt.Summary())
			rpt.PrintReport(os.Stdout)
			return nil
		},
	}

	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded balance runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := state.Open(cfg.State.Dir)
			if err != nil {
				return err
			}
			history, err := store.History()
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(history)
			}
			if len(history) == 0 {
				fmt.Println("No balance runs recorded.")
				return nil
			}

			fmt.Printf("  %-24s %-24s %5s %8s %8s %6s  %s\n",
				"PLAN", "HEURISTIC", "BEAT", "STATIONS", "BALANCE", "MOVES", "SOURCE")
			for _, r := range history {
				fmt.Printf("  %-24s %-24s %5d %8d %8.3f %6d  %s\n",
					r.PlanID, r.Heuristic, r.Beat, r.Stations, r.BalanceRate, r.Moves, ui.Dim(r.Source))
			}
			return nil
		},
	}

	return cmd
}

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove all recorded balance runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := state.Open(cfg.State.Dir)
			if err != nil {
				return err
			}
			if err := store.Clean(); err != nil {
				return err
			}
			fmt.Printf("🧹 Removed %s\n", store.Dir())
			return nil
		},
	}

	return cmd
}
