// mycocore is the lab inventory CLI: lot ledger, tracked instances, and
// cultivation lifecycle reports.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mycocore/internal/config"
	"mycocore/internal/core"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// configFlag holds the value of the --config persistent flag.
var configFlag string

// run executes the mycocore CLI with the given args, writing output to
// stdout and errors to stderr. Returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "mycocore",
		Short:         "mycocore CLI for lab inventory and cultivation lifecycle tracking",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "mycocore: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", config.DefaultPath, "path to mycocore.toml")
	root.AddCommand(newInitCmd(stdout, stderr))
	root.AddCommand(newStatusCmd(stdout, stderr))
	root.AddCommand(newExportCmd(stdout, stderr))
	return root
}

// newInitCmd creates the "mycocore init" subcommand.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default mycocore.toml",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdInit(stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func cmdInit(stdout, stderr io.Writer) int {
	if _, err := os.Stat(configFlag); err == nil {
		fmt.Fprintf(stderr, "mycocore init: %s already exists\n", configFlag) //nolint:errcheck // best-effort stderr
		return 1
	}
	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "mycocore init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if err := os.WriteFile(configFlag, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "mycocore init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", configFlag) //nolint:errcheck // best-effort stdout
	return 0
}

// openService loads configuration and opens the configured persistent store.
func openService(stderr io.Writer) (*core.Service, int) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "mycocore: %v\n", err) //nolint:errcheck // best-effort stderr
		return nil, 1
	}
	cfg.Apply()
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		fmt.Fprintf(stderr, "mycocore: %v\n", err) //nolint:errcheck // best-effort stderr
		return nil, 1
	}
	return core.NewService(store, core.WithLogger(core.NewSlogLogger(nil))), 0
}
