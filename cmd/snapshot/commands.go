package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zatekoja/Medicalqueryreview/internal/adapters/snapshot"
	"github.com/zatekoja/Medicalqueryreview/internal/application/services"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/repositories"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and move medical query state snapshots",
		Long: `Works against the snapshot backend configured by SNAPSHOT_BACKEND
(file, redis, postgres or sqlite) using the same environment as the API server.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(inspectCmd())
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(verifyCmd())

	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Summarise the latest stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store *snapshot.Store) error {
				snap, err := store.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load snapshot: %w", err)
				}
				if snap == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "No snapshot stored in %s backend\n", store.Backend())
					return nil
				}
				printSummary(cmd.OutOrStdout(), store.Backend(), snap)
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List retained snapshots (SQL backends only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store *snapshot.Store) error {
				rows, err := store.History(cmd.Context())
				if errors.Is(err, snapshot.ErrNoHistory) {
					return fmt.Errorf("%s backend keeps only the latest snapshot", store.Backend())
				}
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No snapshots stored")
					return nil
				}
				for i, row := range rows {
					marker := ""
					if i == 0 {
						marker = color.New(color.FgGreen).Sprint(" [latest]")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "#%d  v%d  %s%s\n",
						row.ID, row.Version, row.TakenAt.UTC().Format("2006-01-02 15:04:05Z"), marker)
				}
				return nil
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the latest stored snapshot to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store *snapshot.Store) error {
				snap, err := store.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load snapshot: %w", err)
				}
				if snap == nil {
					return fmt.Errorf("no snapshot stored in %s backend", store.Backend())
				}
				if err := snapshot.NewFileAdapter(out).Save(cmd.Context(), snap); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s exported snapshot to %s\n", ok(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Destination JSON file")
	cmd.MarkFlagRequired("out")

	return cmd
}

func importCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a JSON snapshot file and store it in the configured backend",
		Long: `Validates the file exactly as the server does on startup, then writes it to the
configured backend. Nothing is written when validation fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshotFile(cmd.Context(), in)
			if err != nil {
				return err
			}

			return withStore(cmd.Context(), func(store *snapshot.Store) error {
				persistence, err := restoreInto(cmd.Context(), snap, store, store.Backend())
				if err != nil {
					return err
				}
				if err := persistence.Save(cmd.Context()); err != nil {
					return fmt.Errorf("failed to store snapshot: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s imported %s into %s backend\n", ok(), in, store.Backend())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Source JSON file")
	cmd.MarkFlagRequired("in")

	return cmd
}

func verifyCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a snapshot would restore cleanly",
		Long:  `Verifies the latest stored snapshot, or the file given with --in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			check := func(snap *entities.Snapshot, source string) error {
				if _, err := restoreInto(cmd.Context(), snap, nil, "verify"); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgRed).Sprint("INVALID"), source)
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is valid\n", ok(), source)
				printSummary(cmd.OutOrStdout(), source, snap)
				return nil
			}

			if in != "" {
				snap, err := readSnapshotFile(cmd.Context(), in)
				if err != nil {
					return err
				}
				return check(snap, in)
			}

			return withStore(cmd.Context(), func(store *snapshot.Store) error {
				snap, err := store.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load snapshot: %w", err)
				}
				if snap == nil {
					return fmt.Errorf("no snapshot stored in %s backend", store.Backend())
				}
				return check(snap, store.Backend()+" backend")
			})
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Verify this JSON file instead of the stored snapshot")

	return cmd
}

func withStore(ctx context.Context, fn func(store *snapshot.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := snapshot.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Snapshot.Backend, err)
	}
	defer store.Close()
	return fn(store)
}

func readSnapshotFile(ctx context.Context, path string) (*entities.Snapshot, error) {
	snap, err := snapshot.NewFileAdapter(path).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%s does not exist", path)
	}
	return snap, nil
}

// restoreInto loads snap into fresh registries, running the same validation as server startup
func restoreInto(ctx context.Context, snap *entities.Snapshot, store repositories.SnapshotRepository, backend string) (*services.PersistenceService, error) {
	ids := services.NewIDAllocator()
	doctors := services.NewDoctorRegistry(ids)
	patients := services.NewPatientRegistry(ids, doctors)
	queries := services.NewQueryLifecycleService(ids, patients, doctors, nil)

	var persistence *services.PersistenceService
	if store == nil {
		persistence = services.NewPersistenceService(ids, patients, doctors, queries, nil, backend)
	} else {
		persistence = services.NewPersistenceService(ids, patients, doctors, queries, store, backend)
	}
	if err := persistence.Restore(ctx, snap); err != nil {
		return nil, err
	}
	return persistence, nil
}

func printSummary(w io.Writer, source string, snap *entities.Snapshot) {
	statuses := make(map[entities.QueryStatus]int)
	assigned := 0
	for _, entry := range snap.Patients {
		if entry.Record.AssignedDoctorID != nil {
			assigned++
		}
	}
	for _, entry := range snap.Queries {
		statuses[entry.Record.Status]++
	}

	fmt.Fprintf(w, "Snapshot (%s)\n", color.New(color.FgCyan).Sprint(source))
	fmt.Fprintf(w, "  version:  %d\n", snap.Version)
	fmt.Fprintf(w, "  taken at: %s\n", snap.TakenAt.UTC().Format("2006-01-02 15:04:05Z"))
	fmt.Fprintf(w, "  patients: %d (%d assigned)\n", len(snap.Patients), assigned)
	fmt.Fprintf(w, "  doctors:  %d\n", len(snap.Doctors))
	fmt.Fprintf(w, "  queries:  %d\n", len(snap.Queries))

	names := make([]string, 0, len(statuses))
	for status := range statuses {
		names = append(names, string(status))
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %-13s %d\n", name+":", statuses[entities.QueryStatus(name)])
	}
	fmt.Fprintf(w, "  counters: patient=%d doctor=%d query=%d\n",
		snap.Counters.Patient, snap.Counters.Doctor, snap.Counters.Query)
}

func ok() string {
	return color.New(color.FgGreen).Sprint("✓")
}
