package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftdb/zheap/pkg/vacuumaudit"
	"github.com/riftdb/zheap/pkg/zfixture"
	"github.com/riftdb/zheap/pkg/zheap"
)

func newAuditCmd() *cobra.Command {
	var oldestXmin uint64
	var outDir string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Classify every tuple in the store with satisfies_oldest_xmin and write a Parquet report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigFromFlag()
			if err != nil {
				return err
			}
			fx, tuples, err := buildFixture(cfg)
			if err != nil {
				return err
			}
			scan := zfixture.NewTableScan(tuples...)

			fx.Page.Lock()
			defer fx.Page.Unlock()

			horizon := zheap.Xid(oldestXmin)
			if oldestXmin == 0 {
				horizon = fx.Horizon
			}
			report, err := vacuumaudit.Run(cmd.Context(), fx.Page, fx.Undo, fx.Oracle, scan, horizon, outDir)
			if err != nil {
				return err
			}
			fmt.Printf("live=%d dead=%d recentlyDead=%d insertInProgress=%d deleteInProgress=%d\n",
				report.Live, report.Dead, report.RecentlyDead, report.InsertInProgress, report.DeleteInProgress)
			for _, r := range report.Rows {
				fmt.Printf("  block=%d offset=%d xid=%d verdict=%s dead=%v\n", r.Block, r.Offset, r.Xid, r.Verdict, r.Dead)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&oldestXmin, "oldest-xmin", 0, "horizon to classify against; defaults to the store's own horizon")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write audit.parquet and its lock file into")
	return cmd
}
