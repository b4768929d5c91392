package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/micro"
	"github.com/wnxd/micrort/session"
)

var loadCmd = &cobra.Command{
	Use:   "load <binary>",
	Short: "Load a binary and show its patched runtime holes.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		sess, err := openSession(session.LogExecutor{Logger: slog.Default()})
		if err != nil {
			return err
		}
		defer sess.Close()
		m, err := micro.Load(sess, argv[0])
		if err != nil {
			return err
		}
		dev := sess.LowLevelDevice()
		for _, name := range micro.DefaultHoles {
			off := m.Symbols()[name+"_"]
			addr, err := device.ToPointer(dev, off).ReadPointer()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s_\t%s -> %s\n", name, off, addr)
		}
		return nil
	},
}

// openSession builds the device and session described by the config. The
// session is also closed on exit, which flushes a configured trace.
func openSession(exec session.Executor) (*session.Session, error) {
	mem, err := cfg.Device.NewMemory()
	if err != nil {
		return nil, err
	}
	opts := cfg.Session.Options()
	if cfg.Session.Trace != "" {
		rec, err := session.NewSQLiteRecorder(cfg.Session.Trace)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithRecorder(rec))
	}
	sess, err := session.New(mem, exec, opts...)
	if err != nil {
		return nil, err
	}
	atexit.Register(func() {
		if err := sess.Close(); err != nil {
			slog.Error("close session", "error", err)
		}
	})
	return sess, nil
}
