package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mycocore/internal/core"
	"mycocore/pkg/domain"
)

// ---------------------------------------------------------------------------
// mycocore status
// ---------------------------------------------------------------------------

// newStatusCmd creates the "mycocore status" subcommand.
func newStatusCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize lots, tracked instances, and grows",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdStatus(stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func cmdStatus(stdout, stderr io.Writer) int {
	service, code := openService(stderr)
	if code != 0 {
		return code
	}
	return doStatus(service, stdout)
}

// doStatus prints a one-screen summary of the inventory and grow pipeline.
func doStatus(service *core.Service, stdout io.Writer) int {
	lots := service.ListLots()
	instances := service.ListInstances()
	grows := service.ListGrows()

	byStatus := make(map[domain.LotStatus]int)
	for _, lot := range lots {
		byStatus[lot.Status]++
	}
	inUse := 0
	disposed := 0
	for _, inst := range instances {
		switch inst.Status {
		case domain.InstanceInUse:
			inUse++
		case domain.InstanceDisposed:
			disposed++
		}
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "lots:\t%d total\n", len(lots))                      //nolint:errcheck // best-effort stdout
	for _, status := range []domain.LotStatus{
		domain.LotStatusAvailable, domain.LotStatusLow,
		domain.LotStatusDepleted, domain.LotStatusExpired,
	} {
		if n := byStatus[status]; n > 0 {
			fmt.Fprintf(tw, "\t%d %s\n", n, status) //nolint:errcheck // best-effort stdout
		}
	}
	fmt.Fprintf(tw, "instances:\t%d tracked, %d in use, %d disposed\n", //nolint:errcheck // best-effort stdout
		len(instances), inUse, disposed)
	fmt.Fprintf(tw, "grows:\t%d total\n", len(grows)) //nolint:errcheck // best-effort stdout
	for _, grow := range grows {
		fmt.Fprintf(tw, "\t%s\t%s\t%d flushes\n", //nolint:errcheck // best-effort stdout
			grow.ID, grow.CurrentStage, len(grow.Flushes))
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
	return 0
}
