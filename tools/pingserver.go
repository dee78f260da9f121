package tools

import (
	"time"

	"github.com/spf13/cobra"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/log"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/security/sign"
	"github.com/ndncomm/ndn-go/types/optional"
)

// PingServer registers /prefix/ping and answers every Interest with a
// small fresh Data packet.
type PingServer struct{}

func (ps *PingServer) String() string {
	return "pingserver"
}

func (ps *PingServer) run(_ *cobra.Command, args []string) {
	prefix, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal(ps, "Invalid prefix", "prefix", args[0])
		return
	}
	pingPrefix := prefix.Append(enc.NewGenericComponent("ping"))

	app, err := engine.NewDefaultApp()
	if err != nil {
		log.Fatal(ps, "Unable to create engine", "err", err)
		return
	}
	if err = app.Start(); err != nil {
		log.Fatal(ps, "Unable to connect to forwarder", "err", err)
		return
	}
	defer app.Close()

	signer := sign.NewSha256Signer()
	app.SetCommandSigningInfo(signer)

	registered := make(chan error, 1)
	_, err = app.RegisterPrefix(pingPrefix,
		func(_ enc.Name, interest *spec.Interest, _ uint64) {
			data := spec.NewData(interest.Name(), &spec.DataConfig{
				Freshness: optional.Some(time.Second),
			}, enc.Wire{[]byte("pong")})
			if err := app.PutData(data, signer); err != nil {
				log.Warn(ps, "Failed to reply", "err", err, "name", interest.Name())
			}
		},
		func(prefix enc.Name, err error) {
			registered <- err
		},
		func(enc.Name, uint64) {
			registered <- nil
		})
	if err != nil {
		log.Fatal(ps, "Unable to register prefix", "err", err)
		return
	}

	if err := <-registered; err != nil {
		log.Fatal(ps, "Prefix registration failed", "err", err)
		return
	}
	log.Info(ps, "Ping server running", "prefix", pingPrefix)

	select {}
}
