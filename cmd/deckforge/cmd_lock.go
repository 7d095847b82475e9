package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/deckforge/lock"
)

type lockReport struct {
	Path       string     `json:"path"`
	LockPath   string     `json:"lock_path"`
	Held       bool       `json:"held"`
	Owner      string     `json:"owner,omitempty"`
	PID        int        `json:"pid,omitempty"`
	Host       string     `json:"host,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	Age        string     `json:"age,omitempty"`
	Stale      bool       `json:"stale"`
}

func (a *app) lockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and manage deck locks",
		Long: `Every writer holds FILE.lock while the deck is open. These commands show
who holds it, wait for its release, or remove a lock left by a crashed writer.

Examples:
  deckforge lock status deck.pptx
  deckforge lock wait deck.pptx --timeout 2m
  deckforge lock break deck.pptx`,
	}
	cmd.AddCommand(a.lockStatusCmd(), a.lockWaitCmd(), a.lockBreakCmd())
	return cmd
}

func (a *app) lockStatus(path string) (lockReport, error) {
	info, held, err := lock.Inspect(path)
	if err != nil {
		return lockReport{}, err
	}
	r := lockReport{Path: path, LockPath: lock.PathFor(path), Held: held}
	if !held {
		return r, nil
	}
	now := time.Now()
	r.Owner, r.PID, r.Host = info.Owner, info.PID, info.Host
	if !info.AcquiredAt.IsZero() {
		at := info.AcquiredAt
		r.AcquiredAt = &at
		r.Age = info.Age(now).Round(time.Second).String()
	}
	r.Stale = info.Stale(a.cfg.Lock.StaleAfter, now)
	return r, nil
}

func (a *app) lockStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status FILE",
		Short: "Show who holds the lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.lockStatus(args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, r, func(w io.Writer) {
				label(w, "Lock")
				if !r.Held {
					colorPass.Fprintln(w, "free")
					return
				}
				colorWarn.Fprintf(w, "held by pid %d", r.PID)
				if r.Host != "" {
					fmt.Fprintf(w, " on %s", r.Host)
				}
				fmt.Fprintln(w)
				if r.Age != "" {
					label(w, "Age")
					fmt.Fprintln(w, r.Age)
				}
				if r.Stale {
					colorFail.Fprintln(w, "stale: the holder is gone or the lock is older than the configured limit")
				}
			})
		},
	}
}

func (a *app) lockWaitCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait FILE",
		Short: "Block until the lock is released",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.Lock.Wait
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			start := time.Now()
			if err := lock.WaitReleased(ctx, args[0]); err != nil {
				return fmt.Errorf("waiting for %s: %w", lock.PathFor(args[0]), err)
			}
			waited := time.Since(start).Round(time.Millisecond)
			a.logger.Debug("lock released", "path", args[0], "waited", waited)
			return a.emit(cmd, map[string]any{"path": args[0], "released": true, "waited": waited.String()},
				func(w io.Writer) {
					colorPass.Fprintf(w, "released after %s\n", waited)
				})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long; 0 waits forever (default from config)")
	return cmd
}

func (a *app) lockBreakCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "break FILE",
		Short: "Remove a stale lock",
		Long: `Remove the lock artifact for FILE. Only stale locks are removed unless
--force is given; a lock is stale when its process is gone or it is older than
lock.stale_after.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.lockStatus(args[0])
			if err != nil {
				return err
			}
			if r.Held && !r.Stale && !force {
				return fmt.Errorf("lock on %s is held by pid %d and not stale; use --force to remove it", args[0], r.PID)
			}
			if err := lock.Break(args[0], a.logger); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"path": args[0], "removed": r.Held}, func(w io.Writer) {
				if r.Held {
					colorPass.Fprintln(w, "lock removed")
					return
				}
				fmt.Fprintln(w, "no lock held")
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Remove the lock even when its holder looks alive")
	return cmd
}
