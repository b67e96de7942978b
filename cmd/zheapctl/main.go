// Command zheapctl is a diagnostic CLI over the visibility engine: it
// loads a small TOML-described store (transaction slots, undo records,
// and live tuples) and lets you explain a single tuple's undo chain or
// run the vacuum audit over the whole page. It talks to no real
// storage system; pkg/zfixture is the store underneath.
package main

import (
	"fmt"
	"os"

	"github.com/riftdb/zheap/pkg/zlog"
)

func main() {
	defer zlog.Sync()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zheapctl:", err)
		os.Exit(1)
	}
}
