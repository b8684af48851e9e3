// Package main is the entry point for the elbow CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/james-see/elbow/pkg/config"
	"github.com/james-see/elbow/pkg/device"
	"github.com/james-see/elbow/pkg/export"
	"github.com/james-see/elbow/pkg/logging"
	"github.com/james-see/elbow/pkg/nvstore"
	"github.com/james-see/elbow/pkg/pattern"
	"github.com/james-see/elbow/pkg/ticks"
	"github.com/james-see/elbow/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	storePath  string
	logLevel   string
	outputFile string
	patternNum int
	stepMS     int
	force      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "elbow",
	Short: "Six lamp light sequencer",
	Long: `elbow runs a six lamp light sequencer with six stored patterns,
edited and played from an eight button front panel.

Examples:
  elbow run
  elbow provision --force
  elbow dump
  elbow export 3 -o pattern3.mid
  elbow import pattern3.mid --pattern 4 --step 100
  elbow image export backup.bin`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sequencer in the terminal front panel simulator",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Write the factory patterns to the store",
	Args:  cobra.NoArgs,
	RunE:  runProvision,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every pattern and its settings",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

var exportCmd = &cobra.Command{
	Use:   "export <pattern>",
	Short: "Export a pattern (1-6) to a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <input.mid>",
	Short: "Import a MIDI file into a pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Copy the raw store image to or from a file",
}

var imageExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the store image to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImageExport,
}

var imageImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the store image with a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImageImport,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.ConfigPath(), "Config file path")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Store image path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (overrides config)")

	// provision command
	provisionCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite a store that is already provisioned")

	// export command
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	// import command
	importCmd.Flags().IntVarP(&patternNum, "pattern", "p", 0, "Target pattern (1-6, required)")
	importCmd.Flags().IntVar(&stepMS, "step", 0, "Frame length in ms (default: the delay stored in the file)")
	_ = importCmd.MarkFlagRequired("pattern")

	// Add commands
	imageCmd.AddCommand(imageExportCmd)
	imageCmd.AddCommand(imageImportCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(imageCmd)
}

// loadConfig reads the config file and applies the command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storePath != "" {
		cfg.Store = storePath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func consoleLogger(cfg *config.Config) (*zerolog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewConsole(level), nil
}

// openStore opens the store image, creating its directory if needed
func openStore(cfg *config.Config, root *zerolog.Logger) (*nvstore.File, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	logger := ptr(logging.For(root, "Store").With().Str(logging.LogKey.Store, cfg.Store).Logger())
	return nvstore.OpenFile(cfg.Store, logger)
}

func parsePattern(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > pattern.NumPatterns {
		return 0, fmt.Errorf("pattern must be 1-%d, got %q", pattern.NumPatterns, s)
	}
	return n - 1, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	root, logFile, err := logging.OpenFile(cfg.Log.File, level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	nv, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer nv.Close()

	counter := ticks.NewCounter()
	store := pattern.NewStore(nv, counter, logging.For(root, "Patterns"))
	if nv.Fresh() {
		store.Provision()
	}

	panel := tui.NewPanel()
	dev := device.New(counter, store, panel, panel, logging.For(root, "Device"))
	dev.Start()

	err = tui.Run(dev, counter, panel, tui.Options{
		Tick: cfg.Tick(),
		Poll: cfg.Poll(),
		Tap:  cfg.Panel.Tap(),
		Hold: cfg.Panel.Hold(),
	})
	if err != nil {
		return err
	}
	if err := nv.Err(); err != nil {
		return fmt.Errorf("store write failed during the session: %w", err)
	}
	return nil
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
	if err != nil {
		return err
	}

	nv, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer nv.Close()

	if !nv.Fresh() && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", cfg.Store)
	}

	pattern.NewStore(nv, nil, logging.For(logger, "Patterns")).Provision()
	if err := nv.Err(); err != nil {
		return fmt.Errorf("failed to provision store: %w", err)
	}
	fmt.Printf("Provisioned %s\n", cfg.Store)
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#39FF14"))
	litStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#39FF14"))
	darkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")).Bold(true)
)

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
	if err != nil {
		return err
	}

	nv, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer nv.Close()

	store := pattern.NewStore(nv, nil, logging.For(logger, "Patterns"))
	fmt.Print(renderDump(store))
	return nil
}

// renderDump draws every pattern, one frame per line, frames past the marker dimmed
func renderDump(store *pattern.Store) string {
	var s strings.Builder

	last := store.LastUsed()
	for p := 0; p < pattern.NumPatterns; p++ {
		set := store.LoadSettings(p)
		marker := store.MarkerPosition(p)

		title := fmt.Sprintf("Pattern %d  %d ms  %s  %d/%d frames", p+1, set.Delay, set.Style, marker+1, pattern.Capacity(p))
		if p == last {
			title += "  (last used)"
		}
		s.WriteString(headerStyle.Render(title))
		s.WriteString("\n")

		for i, f := range store.Frames(p) {
			style := litStyle
			if i > marker {
				style = darkStyle
			}
			var lamps strings.Builder
			for ch := 0; ch < pattern.NumLamps; ch++ {
				if f.Lit(ch) {
					lamps.WriteString("●")
				} else {
					lamps.WriteString("○")
				}
			}
			line := fmt.Sprintf("  %2d  %s", i+1, style.Render(lamps.String()))
			if f.Marked() {
				line += " " + markStyle.Render("◀ end")
			}
			s.WriteString(line)
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}
	return s.String()
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := parsePattern(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
	if err != nil {
		return err
	}

	nv, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer nv.Close()

	output := outputFile
	if output == "" {
		output = fmt.Sprintf("pattern%d.mid", p+1)
	}

	store := pattern.NewStore(nv, nil, logging.For(logger, "Patterns"))
	if err := export.ExportPattern(store, p, output); err != nil {
		return err
	}
	fmt.Printf("Exported pattern %d -> %s\n", p+1, output)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	input := args[0]
	p, err := parsePattern(strconv.Itoa(patternNum))
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
	if err != nil {
		return err
	}

	nv, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer nv.Close()

	store := pattern.NewStore(nv, nil, logging.For(logger, "Patterns"))
	seq, err := export.ImportPattern(store, p, input, stepMS)
	if err != nil {
		return err
	}
	if err := nv.Err(); err != nil {
		return fmt.Errorf("failed to store pattern: %w", err)
	}
	fmt.Printf("Imported %s -> pattern %d (%d frames, %d ms, %s)\n",
		input, p+1, len(seq.Frames), seq.Settings.Delay, seq.Settings.Style)
	return nil
}

func runImageExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
	if err != nil {
		return err
	}

	nv, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer nv.Close()

	if err := export.ExportImage(nv, args[0]); err != nil {
		return err
	}
	fmt.Printf("Exported %s -> %s\n", cfg.Store, args[0])
	return nil
}

func runImageImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := consoleLogger(cfg)
	if err != nil {
		return err
	}

	nv, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer nv.Close()

	if err := export.ImportImage(nv, args[0]); err != nil {
		return err
	}
	fmt.Printf("Imported %s -> %s\n", args[0], cfg.Store)
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
