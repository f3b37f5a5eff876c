package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joshharrison/lineloom/internal/config"
	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/logging"
	"github.com/joshharrison/lineloom/internal/planner"
	"github.com/joshharrison/lineloom/internal/source"
	"github.com/joshharrison/lineloom/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagConfig      string
	flagJSON        bool
	flagInputFormat string
	flagOutput      string
	flagFormat      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lineloom",
		Short: "Balance assembly lines onto the fewest, evenest stations",
		Long: `Lineloom reads a table of work elements with durations and precedence
relations, assigns them to stations under a beat (cycle time) with the
ranked positional weight or Moodie-Young heuristic, then trades and
transfers tasks between stations to even out the load.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "config file (default is $HOME/.config/lineloom/config.yaml)")
	pf.BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	pf.StringVar(&flagInputFormat, "input-format", "", "Task table format (csv, json, yaml); default from file extension")
	pf.Int("beat", 0, "Cycle time every station must fit in")
	pf.String("heuristic", "rpw", "Station assignment heuristic (rpw, moodie_young)")
	pf.String("tie-break", "max_time", "Moodie-Young pool order (max_time, min_time)")
	pf.Bool("improve", false, "Run the trade/transfer improvement phase")
	pf.Int("max-rounds", 0, "Cap on improvement rounds (0 uses the default)")
	pf.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "Write JSON logs to this file instead of stderr")

	_ = viper.BindPFlag("balance.beat", pf.Lookup("beat"))
	_ = viper.BindPFlag("balance.heuristic", pf.Lookup("heuristic"))
	_ = viper.BindPFlag("balance.tie_break", pf.Lookup("tie-break"))
	_ = viper.BindPFlag("balance.improve", pf.Lookup("improve"))
	_ = viper.BindPFlag("balance.max_rounds", pf.Lookup("max-rounds"))
	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", pf.Lookup("log-file"))

	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(inferPredsCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(cleanCmd())

	return rootCmd
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	// LINELOOM_BALANCE_BEAT for balance.beat
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig returns the validated configuration and a logger built from it.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadTasks reads the task table at path, honoring --input-format.
func loadTasks(path string) ([]source.RawTask, error) {
	if flagInputFormat == "" {
		return source.Load(path)
	}
	format, err := source.ParseFormat(flagInputFormat)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read task table: %w", err)
	}
	defer f.Close()
	return source.Parse(format, f)
}

// buildPlan is shared logic for the balance and viz commands.
func buildPlan(path string, cfg *config.Config, logger *logging.Logger) (*planner.BalancePlan, *graph.TaskGraph, error) {
	if err := cfg.Balance.Ready(); err != nil {
		return nil, nil, err
	}

	records, err := loadTasks(path)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no tasks found in %s", path)
	}

	g, err := graph.BuildFromRaw(records)
	if err != nil {
		return nil, nil, fmt.Errorf("build task graph: %w", err)
	}

	plan, err := planner.Generate(g, cfg.Balance.PlanConfig(), planner.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("balance: %w", err)
	}
	return plan, g, nil
}

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("❌"), err)
}
