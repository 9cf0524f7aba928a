package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/guardup-admin/internal/app"
	"github.com/celerix-dev/guardup-admin/internal/config"
	"github.com/celerix-dev/guardup-admin/internal/engine"
	"github.com/celerix-dev/guardup-admin/internal/export"
	"github.com/celerix-dev/guardup-admin/internal/query"
	"github.com/celerix-dev/guardup-admin/internal/reports"
	"github.com/celerix-dev/guardup-admin/internal/users"
	"github.com/celerix-dev/guardup-admin/pkg/docstore"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  docstore.Store
	svc    app.Services
}

func openEnv(ctx context.Context) (*env, error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Log)

	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    app.NewServices(store, cfg.Dashboard, logger, nil),
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("close store", "error", err)
	}
}

// --- users ---

func usersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.svc.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printUsers(cmd.OutOrStdout(), list, e.cfg.Dashboard.Location)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// --- reports ---

func reportsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List health reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.svc.Reports.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printReports(cmd.OutOrStdout(), list, e.cfg.Dashboard.Location)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// --- entries ---

func entriesCmd() *cobra.Command {
	var (
		raw      query.RawFilters
		pdfPath  string
		xlsxPath string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List building entries (last 7 days unless --end is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := query.ParseFilters(raw)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.svc.Entries.Fetch(cmd.Context(), f)
			if err != nil {
				return err
			}
			loc := e.svc.Entries.Location()

			if pdfPath != "" {
				if err := writeFile(pdfPath, func(w io.Writer) error { return export.WritePDF(w, list, loc) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries to %s\n", len(list), pdfPath)
			}
			if xlsxPath != "" {
				if err := writeFile(xlsxPath, func(w io.Writer) error { return export.WriteXLSX(w, list, loc) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries to %s\n", len(list), xlsxPath)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			if pdfPath == "" && xlsxPath == "" {
				return printEntries(cmd.OutOrStdout(), list, loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.BuildingCode, "building", "", "building code (exact match)")
	cmd.Flags().StringVar(&raw.StartDate, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&raw.EndDate, "end", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&raw.UserEmail, "email", "", "user email (exact match)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write a PDF table to this file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write a workbook to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// --- notify ---

func notifyCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "notify USER_ID",
		Short: "Send the exposure alert to one user after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.svc.Users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var flow users.Flow
			flow.Request(u)

			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), u, e.svc.Users.Message()) {
				if err := flow.Cancel(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled. Nothing was sent.")
				return nil
			}

			c, err := flow.Confirm()
			if err != nil {
				return err
			}
			n, err := e.svc.Users.Send(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alert sent to %s (notification %s).\n", u.Email, n.ID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks the operator to approve the alert. Only "y" or "yes" approves.
func confirm(in io.Reader, out io.Writer, u schema.User, message string) bool {
	fmt.Fprintf(out, "Send this alert to %s <%s>?\n\n  %s\n\n[y/N]: ", u.Name, u.Email, message)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// --- seed ---

func seedCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy JSON fixtures (one file per collection) into the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := engine.NewPersistence(from)
			if err != nil {
				return err
			}
			src, err := p.LoadInto()
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			collections := src.Collections()
			n, err := engine.Migrate(cmd.Context(), src, e.store, collections...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d documents into %d collections.\n", n, len(collections))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "fixtures directory")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// --- version ---

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion())
		},
	}
}

// --- Output ---

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsers(w io.Writer, list []schema.User, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tREGISTERED")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, export.FormatTimestamp(u.CreatedAt, loc))
	}
	return tw.Flush()
}

func printEntries(w io.Writer, list []schema.Entry, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER EMAIL\tBUILDING CODE\tTIMESTAMP")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.UserEmail, e.BuildingCode, export.FormatTimestamp(e.Timestamp, loc))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d entries\n", len(list))
	return err
}

func printReports(w io.Writer, list []schema.Report, loc *time.Location) error {
	if _, err := fmt.Fprintf(w, "%d reports found\n", len(list)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE REPORTED\tEMAIL\tEXPOSURE DATE\tPOSITIVE\tSYMPTOMS\tQUARANTINE\tMEDICAL")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			export.FormatTimestamp(r.Timestamp, loc), r.Email, r.ExposureDate,
			reports.YesNo(r.TestedPositive), reports.YesNo(r.ExperiencingSymptoms),
			reports.YesNo(r.InQuarantine), reports.YesNo(r.MedicalAssistanceNeeded))
	}
	return tw.Flush()
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
