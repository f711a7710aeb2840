package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Plexxi/j2/builtin"
	"github.com/Plexxi/j2/edict"
	"github.com/Plexxi/j2/listree"
	"github.com/Plexxi/j2/vm"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "j2 <format> [path]",
		Short: "Run a program against a fresh bytecode VM environment",
		Long: `j2 compiles a program in one of the recognized front-end formats
(asm, edict, xml, json, yaml, lisp, massoc -- only asm and edict are
implemented) and runs it to completion against a fresh environment.

With no path, the program is read from standard input.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), args)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "dump environment state on exit")
	return cmd
}

func run(out io.Writer, args []string) error {
	format := args[0]

	var src []byte
	var err error
	if len(args) == 2 {
		src, err = os.ReadFile(args[1])
	} else {
		src, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}

	code, err := edict.CompileFormat(format, src)
	if err != nil {
		return fmt.Errorf("compiling program: %w", err)
	}

	rt, err := vm.NewRuntime(8)
	if err != nil {
		return err
	}
	builtin.Standard(out).Register(rt)

	root := listree.NewValue(nil, listree.FlagNone)
	env := vm.NewEnv(rt, root)
	env.LambdaPush(code)

	ctx := context.Background()
	if err := rt.Enqueue(ctx, env); err != nil {
		return err
	}
	if err := rt.Drain(ctx, 1); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(out, "final state: %s\n", env.State)
	}
	if env.Broken() {
		return fmt.Errorf("environment ended broken: %v", env.Err())
	}
	return nil
}
