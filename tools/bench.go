package tools

import (
	"time"

	"github.com/spf13/cobra"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/fetch"
	"github.com/ndncomm/ndn-go/log"
)

// Bench pulls the segments of a named object through the pipelined
// fetcher and reports throughput counters.
type Bench struct{}

func (b *Bench) String() string {
	return "bench"
}

func (b *Bench) run(_ *cobra.Command, args []string) {
	name, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal(b, "Invalid name", "name", args[0])
		return
	}

	app, err := engine.NewDefaultApp()
	if err != nil {
		log.Fatal(b, "Unable to create engine", "err", err)
		return
	}
	if err = app.Start(); err != nil {
		log.Fatal(b, "Unable to connect to forwarder", "err", err)
		return
	}
	defer app.Close()

	done := make(chan struct{})
	t1 := time.Now()

	fetcher := fetch.NewPipelineFetcher(app, name,
		func(stats fetch.PipelineStats) {
			elapsed := time.Since(t1)
			log.Info(b, "Transfer completed",
				"blocks", stats.TotalBlocks,
				"interests", stats.InterestSent,
				"received", stats.PktRecved,
				"dups", stats.Dups,
				"timeouts", stats.TimedOut,
				"elapsed", elapsed,
				"blocks_per_sec", float64(stats.TotalBlocks)/elapsed.Seconds())
			close(done)
		},
		func(err error) {
			log.Error(b, "Transfer failed", "err", err)
			close(done)
		})

	if err := fetcher.Start(); err != nil {
		log.Fatal(b, "Unable to start transfer", "err", err)
		return
	}

	<-done
}
