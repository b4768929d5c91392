package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/micro"
	"github.com/wnxd/micrort/session"
)

var runTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run <binary> <function> [args...]",
	Short: "Queue one call of a function and wait for it.",
	Long: "Arguments are integers (0x prefixes allowed), floats, null, " +
		"or strings. Quote a value to force a string.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, argv []string) error {
		sess, err := openSession(session.LogExecutor{Logger: slog.Default()})
		if err != nil {
			return err
		}
		defer sess.Close()
		h, err := micro.LoadFile(micro.TypeKey+"_dev", sess, argv[0])
		if err != nil {
			return err
		}
		fn, err := h.GetFunction(argv[1])
		if err != nil {
			return err
		}
		list := make(args.List, 0, len(argv)-2)
		for _, s := range argv[2:] {
			list = append(list, parseArg(s))
		}
		task, err := fn.Call(list...)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
		defer cancel()
		res, err := task.Wait(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s = %s\n", fn.Name(), list, res)
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Second, "how long to wait for the call")
}

func parseArg(s string) args.Arg {
	if s == "null" {
		return args.Null()
	}
	if unq, err := strconv.Unquote(s); err == nil && strings.HasPrefix(s, `"`) {
		return args.String(unq)
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return args.Int(v)
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return args.Uint(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return args.Float(v)
	}
	return args.String(s)
}
