// Package fetch implements object retrieval on top of the engine: a
// version-discovering segment fetcher and a sliding-window pipelined
// fetcher.
package fetch

import (
	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/log"
	"github.com/ndncomm/ndn-go/ndn"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
)

// ExpressRArgs are the arguments of ExpressR.
type ExpressRArgs struct {
	// Name of the Interest.
	Name enc.Name
	// Template carrying the selectors, if any.
	Template *spec.Interest
	// Retries on timeout before giving up.
	Retries int
	// Callback receives the Data, or a nil Data with the final error.
	Callback func(data *spec.Data, err error)
}

// ExpressR expresses a single Interest with retries on timeout.
func ExpressR(app *engine.App, args ExpressRArgs) {
	_, err := app.ExpressName(args.Name, args.Template,
		func(_ *spec.Interest, data *spec.Data) {
			args.Callback(data, nil)
		},
		func(*spec.Interest) {
			if args.Retries == 0 {
				args.Callback(nil, ndn.ErrDeadlineExceed)
				return
			}
			log.Debug(nil, "ExpressR interest timeout", "name", args.Name)
			args.Retries--
			ExpressR(app, args)
		})
	if err != nil {
		args.Callback(nil, err)
	}
}
