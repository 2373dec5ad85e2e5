package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mycocore/internal/adapters/reports"
	"mycocore/internal/blob"
)

// ---------------------------------------------------------------------------
// mycocore export <kind>
// ---------------------------------------------------------------------------

// newExportCmd creates the "mycocore export <kind>" subcommand.
func newExportCmd(stdout, stderr io.Writer) *cobra.Command {
	var formats []string
	cmd := &cobra.Command{
		Use:   "export <kind>",
		Short: "Render a report (inventory_status or harvest_yield) to the blob store",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			if cmdExport(args, formats, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&formats, "format", nil, "artifact formats (json, csv); default both")
	return cmd
}

func cmdExport(args []string, formats []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "mycocore export: missing report kind") //nolint:errcheck // best-effort stderr
		return 1
	}
	kind := reports.Kind(args[0])

	service, code := openService(stderr)
	if code != 0 {
		return code
	}
	ctx := context.Background()
	blobs, err := blob.Open(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "mycocore export: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	worker := reports.NewWorker(service, blobs)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		worker.Stop(stopCtx) //nolint:errcheck // best-effort shutdown
	}()

	req := reports.Request{Kind: kind, RequestedBy: "cli"}
	for _, f := range formats {
		req.Formats = append(req.Formats, reports.Format(f))
	}
	record, err := worker.Enqueue(ctx, req)
	if err != nil {
		fmt.Fprintf(stderr, "mycocore export: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	record, ok := waitForReport(worker, record.ID, 30*time.Second)
	if !ok {
		fmt.Fprintln(stderr, "mycocore export: timed out waiting for report") //nolint:errcheck // best-effort stderr
		return 1
	}
	if record.Status != reports.StatusSucceeded {
		fmt.Fprintf(stderr, "mycocore export: %s\n", record.Error) //nolint:errcheck // best-effort stderr
		return 1
	}
	for _, artifact := range record.Artifacts {
		fmt.Fprintf(stdout, "%s\t%d bytes\n", artifact.Key, artifact.SizeBytes) //nolint:errcheck // best-effort stdout
	}
	return 0
}

// waitForReport polls until the report reaches a terminal status.
func waitForReport(worker *reports.Worker, id string, timeout time.Duration) (reports.Record, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		record, ok := worker.Get(id)
		if ok && (record.Status == reports.StatusSucceeded || record.Status == reports.StatusFailed) {
			return record, true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return reports.Record{}, false
}
