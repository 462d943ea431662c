package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"netsync/feature/devicesync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncDir     string
	syncDevices []string
	syncAll     bool
	syncDryRun  bool
	syncCleanup bool
	syncNoColor bool
	syncYes     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile device snapshots with the system of record",
	Long: `Loads device snapshots from a directory or the configured bucket and
reconciles every entity kind with the system of record.

Use --dry-run to preview the plan without changing anything.
With --cleanup, remote objects missing from the snapshot are deleted;
a live cleanup asks for confirmation unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(configPath)
		if err != nil {
			return err
		}
		defer a.close()

		if cmd.Flags().Changed("cleanup") {
			a.cfg.Sync.Cleanup = syncCleanup
		}
		dryRun := syncDryRun || a.cfg.Sync.DryRun

		if a.cfg.Sync.Cleanup && !dryRun && !syncYes {
			if !confirmCleanup(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return errors.New("cleanup aborted by user")
			}
		}

		if err := a.openStore(ctx); err != nil {
			return err
		}
		var source devicesync.Source
		if syncDir != "" {
			source = devicesync.NewDirSource(syncDir)
		} else {
			if err := a.openStorage(ctx); err != nil {
				return err
			}
			if source = a.source(); source == nil {
				return errors.New("no snapshot source: pass --dir or enable storage")
			}
		}
		if err := a.openEvents(); err != nil {
			return err
		}

		syncer, err := a.syncer()
		if err != nil {
			return err
		}
		snaps, err := loadSnapshots(ctx, source)
		if err != nil {
			return err
		}

		a.log.Info("Starting sync", zap.Int("devices", len(snaps)), zap.Bool("dry_run", dryRun))
		results := syncer.RunMany(ctx, snaps, dryRun)

		failed := 0
		for _, res := range results {
			devicesync.Render(cmd.OutOrStdout(), res, syncNoColor)
			fmt.Fprintln(cmd.OutOrStdout())
			if !res.OK() {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d device runs did not complete cleanly", failed, len(results))
		}
		return nil
	},
}

// loadSnapshots resolves the --device and --all selection against source.
func loadSnapshots(ctx context.Context, source devicesync.Source) ([]*devicesync.Snapshot, error) {
	devices := syncDevices
	if syncAll {
		all, err := source.Devices(ctx)
		if err != nil {
			return nil, err
		}
		devices = all
	}
	if len(devices) == 0 {
		return nil, errors.New("no devices selected: pass --device or --all")
	}

	snaps := make([]*devicesync.Snapshot, 0, len(devices))
	for _, device := range devices {
		snap, err := source.Load(ctx, device)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", device, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func confirmCleanup(in io.Reader, out io.Writer) bool {
	fmt.Fprintln(out, "WARNING: cleanup deletes remote objects that are missing from the snapshots.")
	fmt.Fprint(out, "Type 'yes' to continue: ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer)) == "yes"
}

func init() {
	syncCmd.Flags().StringVar(&syncDir, "dir", "", "Read snapshots from a local directory instead of the bucket")
	syncCmd.Flags().StringSliceVarP(&syncDevices, "device", "d", nil, "Device to sync (repeatable)")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every device with a snapshot")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Preview changes without applying them")
	syncCmd.Flags().BoolVar(&syncCleanup, "cleanup", false, "Delete remote objects missing from the snapshot")
	syncCmd.Flags().BoolVar(&syncNoColor, "no-color", false, "Disable colored output")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "Skip the cleanup confirmation prompt")
	RootCmd.AddCommand(syncCmd)
}
