// Command shellvm is a small demonstration CLI around pkgs/engine: it
// mounts a host directory as a sandboxed virtual filesystem, registers the
// built-in command set, and runs a script file (or stdin) against it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/shellvm/pkgs/builtins"
	"github.com/aledsdavies/shellvm/pkgs/engine"
	"github.com/aledsdavies/shellvm/pkgs/registry"
	"github.com/aledsdavies/shellvm/pkgs/vfsys"
)

func main() {
	var (
		mount   string
		rules   []string
		envVars []string
		readony bool
		debug   bool
	)

	rootCmd := &cobra.Command{
		Use:           "shellvm [script]",
		Short:         "Run a sandboxed shell script against an in-memory virtual filesystem",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}

			env, err := parseEnv(envVars)
			if err != nil {
				return err
			}

			exitCode, err := run(cmd.Context(), file, mount, rules, env, readony, debug)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			if exitCode != 0 {
				return &exitError{code: exitCode}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&mount, "mount", ".", "host directory mounted as the sandbox root")
	rootCmd.PersistentFlags().StringArrayVar(&rules, "rule", nil, "permission rule \"pattern=read-write|read-only|excluded\", most specific wins, repeatable")
	rootCmd.PersistentFlags().StringArrayVar(&envVars, "env", nil, "environment variable \"NAME=value\" exposed to the script, repeatable (the host process environment is never forwarded implicitly)")
	rootCmd.PersistentFlags().BoolVar(&readony, "read-only", false, "default every unmatched path to read-only instead of read-write")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable structured debug logging of pipeline execution")

	exitCode := 0
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			exitCode = ee.code
		} else {
			fmt.Fprintf(os.Stderr, "shellvm: %v\n", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// exitError carries a command's own exit code through cobra's RunE/Execute
// without printing an extra error line for a plain non-zero exit.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func run(ctx context.Context, file, mount string, ruleFlags []string, env map[string]string, readOnly, debug bool) (int, error) {
	source, err := readSource(file)
	if err != nil {
		return 1, err
	}

	rules, err := parseRules(ruleFlags)
	if err != nil {
		return 1, err
	}

	defaultPermission := vfsys.ReadWrite
	if readOnly {
		defaultPermission = vfsys.ReadOnly
	}

	fs, err := vfsys.New(os.DirFS(mount), "/", defaultPermission, rules)
	if err != nil {
		return 1, fmt.Errorf("mounting %s: %w", mount, err)
	}

	cmds := registry.New()
	builtins.Register(cmds)

	var logger *logrus.Logger
	if debug {
		logger = logrus.StandardLogger()
		logger.SetLevel(logrus.DebugLevel)
	}

	e := engine.New(engine.Config{
		FS:       fs,
		Commands: cmds,
		Env:      env,
		Logger:   logger,
		Debug:    debug,
	})

	res, err := e.Run(ctx, string(source))
	if err != nil {
		return 1, err
	}

	fmt.Fprint(os.Stdout, res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)
	return res.ExitCode, nil
}

// readSource reads the script from file, or from stdin when file is empty
// or "-".
func readSource(file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

// parseRules turns "pattern=permission" flag values into vfsys.Rule.
func parseRules(flags []string) ([]vfsys.Rule, error) {
	rules := make([]vfsys.Rule, 0, len(flags))
	for _, f := range flags {
		pattern, permStr, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --rule %q, expected pattern=permission", f)
		}
		perm, err := parsePermission(permStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --rule %q: %w", f, err)
		}
		rules = append(rules, vfsys.Rule{Pattern: pattern, Permission: perm})
	}
	return rules, nil
}

func parsePermission(s string) (vfsys.Permission, error) {
	switch s {
	case "read-write":
		return vfsys.ReadWrite, nil
	case "read-only":
		return vfsys.ReadOnly, nil
	case "excluded":
		return vfsys.Excluded, nil
	default:
		return 0, fmt.Errorf("unknown permission %q", s)
	}
}

// parseEnv builds the script's environment from explicit "NAME=value"
// --env flags only. The host process's own environment is never forwarded
// implicitly: a script only sees what the caller opts in via --env, keeping
// the sandbox's "no access to the host process environment" guarantee
// intact by default.
func parseEnv(flags []string) (map[string]string, error) {
	env := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --env %q, expected NAME=value", f)
		}
		env[name] = value
	}
	return env, nil
}
