package tools

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/log"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/utils"
)

// PingClient sends Interests like /prefix/ping/number and measures the
// round-trip time.
type PingClient struct {
	interval int
	timeout  int
	count    int
	seq      uint64
}

func (pc *PingClient) String() string {
	return "ping"
}

func (pc *PingClient) run(_ *cobra.Command, args []string) {
	prefix, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal(pc, "Invalid prefix", "prefix", args[0])
		return
	}
	pingPrefix := prefix.Append(enc.NewGenericComponent("ping"))

	app, err := engine.NewDefaultApp()
	if err != nil {
		log.Fatal(pc, "Unable to create engine", "err", err)
		return
	}
	if err = app.Start(); err != nil {
		log.Fatal(pc, "Unable to connect to forwarder", "err", err)
		return
	}
	defer app.Close()

	seq := pc.seq
	if seq == 0 {
		seq = rand.Uint64()
	}

	recved, lost := 0, 0
	for i := 0; pc.count == 0 || i < pc.count; i++ {
		name := pingPrefix.Append(enc.NewNumberComponent(enc.SequenceMarker, seq))
		interest := spec.NewInterest(name)
		interest.SetMustBeFresh(true)
		interest.SetLifetime(time.Duration(pc.timeout) * time.Millisecond)

		done := make(chan bool, 1)
		t1 := time.Now()
		_, err := app.ExpressInterest(interest,
			func(_ *spec.Interest, data *spec.Data) {
				log.Info(pc, "Reply received", "seq", seq, "rtt", time.Since(t1))
				done <- true
			},
			func(*spec.Interest) {
				log.Warn(pc, "Ping timed out", "seq", seq)
				done <- false
			})
		if err != nil {
			log.Fatal(pc, "Unable to express interest", "err", err)
			return
		}

		if <-done {
			recved++
		} else {
			lost++
		}
		seq++
		app.Timer().Sleep(time.Duration(pc.interval) * time.Millisecond)
	}

	log.Info(pc, "Ping finished", "sent", recved+lost, "received", recved,
		"loss_pct", utils.If(recved+lost > 0, 100*lost/(recved+lost), 0))
}
