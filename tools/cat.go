// Package tools implements the client command-line tools.
package tools

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/fetch"
	"github.com/ndncomm/ndn-go/log"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
)

type CatChunks struct{}

func (cc *CatChunks) String() string {
	return "cat"
}

func (cc *CatChunks) run(_ *cobra.Command, args []string) {
	name, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal(cc, "Invalid name", "name", args[0])
		return
	}

	app, err := engine.NewDefaultApp()
	if err != nil {
		log.Fatal(cc, "Unable to create engine", "err", err)
		return
	}
	if err = app.Start(); err != nil {
		log.Fatal(cc, "Unable to connect to forwarder", "err", err)
		return
	}
	defer app.Close()

	done := make(chan struct{})
	t1 := time.Now()

	err = fetch.FetchSegments(app, spec.NewInterest(name), fetch.DontVerifySegment,
		func(content []byte) {
			os.Stdout.Write(content)
			elapsed := time.Since(t1)
			log.Info(cc, "Fetch completed",
				"bytes", len(content),
				"elapsed", elapsed,
				"rate_mbps", float64(len(content))*8/elapsed.Seconds()/1e6)
			close(done)
		},
		func(err error) {
			log.Error(cc, "Fetch failed", "err", err)
			close(done)
		})
	if err != nil {
		log.Fatal(cc, "Unable to express interest", "err", err)
		return
	}

	<-done
}
