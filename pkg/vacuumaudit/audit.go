// Package vacuumaudit walks a set of tuples and classifies each one
// with the visibility engine's oldest-xmin and surely-dead predicates,
// producing a report of what a real vacuum would reclaim without
// actually reclaiming anything: it never writes undo, never applies
// rollback, and never touches the page. Diagnostic only.
package vacuumaudit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riftdb/zheap/pkg/zheap"
	"github.com/riftdb/zheap/pkg/zlog"
)

// classifyConcurrency bounds how many tuples Run classifies at once.
// Classification only reads the page and undo log (both safe for
// concurrent readers; UndoStore.Fetch/Release are internally locked),
// so this is pure CPU fan-out, not a correctness requirement.
const classifyConcurrency = 8

// TupleSource supplies the live tuples on a page to audit. It is a
// narrow interface deliberately: the reporter never needs a query
// planner, only an enumeration of what's currently on the page.
type TupleSource interface {
	Tuples() []*zheap.Tuple
}

// RowVerdict is one tuple's classification.
type RowVerdict struct {
	Block   uint32
	Offset  uint16
	Xid     uint64
	Verdict string
	Dead    bool
}

// Report summarizes a single audit run.
type Report struct {
	Live             int
	Dead             int
	RecentlyDead     int
	InsertInProgress int
	DeleteInProgress int
	Rows             []RowVerdict
}

type parquetRow struct {
	Block   int32  `parquet:"name=block, type=INT32"`
	Offset  int32  `parquet:"name=offset, type=INT32"`
	Xid     int64  `parquet:"name=xid, type=INT64"`
	Verdict string `parquet:"name=verdict, type=BYTE_ARRAY, convertedtype=UTF8"`
	Dead    bool   `parquet:"name=dead, type=BOOLEAN"`
}

// Run classifies every tuple source.Tuples() returns with both
// SatisfiesOldestXmin and IsSurelyDead and writes a Parquet report to outDir/audit.parquet. It
// locks outDir for the duration of the run with a flock-based file
// lock, so two audit runs against the same directory never interleave.
func Run(ctx context.Context, page zheap.PageMetadata, store zheap.UndoStore, oracle zheap.Oracle, source TupleSource, oldestXmin zheap.Xid, outDir string) (Report, error) {
	lockPath := filepath.Join(outDir, "audit.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, defaultLockRetry)
	if err != nil {
		return Report{}, fmt.Errorf("vacuumaudit: acquire lock: %w", err)
	}
	if !locked {
		return Report{}, fmt.Errorf("vacuumaudit: %s is held by another audit run", lockPath)
	}
	defer fl.Unlock()

	tuples := source.Tuples()
	rows := make([]RowVerdict, len(tuples))
	verdicts := make([]zheap.OldestXminVerdict, len(tuples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)
	for i, tup := range tuples {
		i, tup := i, tup
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdict, xid, err := zheap.SatisfiesOldestXmin(page, store, oracle, tup, oldestXmin)
			if err != nil {
				return fmt.Errorf("vacuumaudit: classify %+v: %w", tup.Self, err)
			}
			dead, err := zheap.IsSurelyDead(page, store, oracle, tup, oldestXmin)
			if err != nil {
				return fmt.Errorf("vacuumaudit: surely-dead %+v: %w", tup.Self, err)
			}
			verdicts[i] = verdict
			rows[i] = RowVerdict{
				Block:   uint32(tup.Self.Block),
				Offset:  uint16(tup.Self.Offset),
				Xid:     uint64(xid),
				Verdict: verdict.String(),
				Dead:    dead,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Rows: rows}
	for _, verdict := range verdicts {
		switch verdict {
		case zheap.Live:
			report.Live++
		case zheap.Dead:
			report.Dead++
		case zheap.RecentlyDead:
			report.RecentlyDead++
		case zheap.InsertInProgress:
			report.InsertInProgress++
		case zheap.DeleteInProgress:
			report.DeleteInProgress++
		}
	}

	outPath := filepath.Join(outDir, "audit.parquet")
	if werr := writeParquet(outPath, report.Rows); werr != nil {
		return report, werr
	}
	zlog.Info("vacuum audit complete",
		zap.String("path", outPath),
		zap.Int("live", report.Live), zap.Int("dead", report.Dead),
		zap.Int("recentlyDead", report.RecentlyDead))
	return report, nil
}

func writeParquet(path string, rows []RowVerdict) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("vacuumaudit: open %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		return fmt.Errorf("vacuumaudit: new writer: %w", err)
	}
	pw.RowGroupSize = 64 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		row := parquetRow{
			Block:   int32(r.Block),
			Offset:  int32(r.Offset),
			Xid:     int64(r.Xid),
			Verdict: r.Verdict,
			Dead:    r.Dead,
		}
		if werr := pw.Write(row); werr != nil {
			return fmt.Errorf("vacuumaudit: write row: %w", werr)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("vacuumaudit: finalize: %w", err)
	}
	return nil
}
