// Package main provides the CLI interface for the gocalc calculator.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sivchari/gocalc/internal/config"
	"github.com/sivchari/gocalc/internal/history"
	"github.com/sivchari/gocalc/internal/report"
	"github.com/sivchari/gocalc/internal/web"
	"github.com/sivchari/gocalc/pkg/gocalc"
)

const version = "0.1.0"

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gocalc",
	Short: "A two-operand keypad calculator",
	Long: `gocalc is a keypad calculator with the four basic operations plus power and percent.

Type keys line by line: digits, ".", "+ - * / ^ %", "=" to evaluate,
"c" to clear and "<" to delete the last character. Operators are evaluated
strictly left to right, so 2+3*4= shows 20.`,
	Args:          cobra.NoArgs,
	RunE:          runInteractive,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var evalCmd = &cobra.Command{
	Use:   "eval <keys>...",
	Short: "Press a key sequence and print the final display",
	Example: `  gocalc eval "2+3*4="
  gocalc eval 50 % 20 =`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calculator keypad to a browser",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var tapeCmd = &cobra.Command{
	Use:   "tape",
	Short: "Print the session tape",
	Args:  cobra.NoArgs,
	RunE:  runTape,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gocalc version %s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gocalc configuration",
	Long:  "Commands for managing gocalc configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new gocalc configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		filename := ".gocalc.yaml"

		if _, err := os.Stat(filename); err == nil && !force {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", filename)
		}

		if err := config.Default().Save(filename); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", filename)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := configFile
		if len(args) > 0 {
			file = args[0]
		}

		if _, err := config.Load(file); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .gocalc.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tapeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite existing config file")

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	tapeCmd.Flags().String("format", "", "output format (text, json)")
	tapeCmd.Flags().Bool("reset", false, "clear the tape after printing it")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.Verbose = true
	}

	return cfg, nil
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, err := gocalc.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	runErr := session.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())

	if err := session.Close(); err != nil {
		log.Printf("Warning: %v", err)
	}

	return runErr
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, err := gocalc.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	update, err := session.Eval(strings.Join(args, ""))
	if err != nil {
		return err
	}

	if update.Alert != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), update.Alert)
	}

	fmt.Fprintln(cmd.OutOrStdout(), update.Display)

	return session.Close()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	tape, err := openTape(cfg)
	if err != nil {
		return err
	}

	log.Printf("Serving calculator on http://%s", cfg.Server.Addr)

	serveErr := web.New(cfg, tape).ListenAndServe(cmd.Context())

	if err := tape.Save(); err != nil {
		log.Printf("Warning: failed to save tape: %v", err)
	}

	return serveErr
}

func runTape(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Tape.Format = format
	}

	// The tape command always reads the file, even when recording is off.
	tape, err := history.New(cfg.Tape.File)
	if err != nil {
		return fmt.Errorf("failed to open tape: %w", err)
	}

	generator, err := report.New(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := generator.Generate(tape); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		tape.Reset()

		if err := tape.Save(); err != nil {
			return fmt.Errorf("failed to reset tape: %w", err)
		}
	}

	return nil
}

func openTape(cfg *config.Config) (*history.Store, error) {
	tapeFile := ""
	if cfg.Tape.Enabled {
		tapeFile = cfg.Tape.File
	}

	tape, err := history.New(tapeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open tape: %w", err)
	}

	return tape, nil
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// Cobra reads os.Args when given nil.
	if args == nil {
		args = []string{}
	}

	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
