package fetch

import (
	"sync"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/fetch/congestion"
	"github.com/ndncomm/ndn-go/log"
	"github.com/ndncomm/ndn-go/ndn"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
)

const (
	// MaxWindow bounds the send window, in segments.
	MaxWindow = 32
	// oooRingSize is the capacity of the out-of-order ring.
	oooRingSize = 128
	// fastRetransmitThreshold triggers a retransmission of the lowest
	// un-acked segment after this many consecutive out-of-order
	// arrivals.
	fastRetransmitThreshold = 3
	// maxRetransmissions bounds per-segment timeout retries before the
	// whole fetch aborts.
	maxRetransmissions = 5
)

// PipelineStats are the transfer counters of one pipelined fetch.
type PipelineStats struct {
	// Dups counts segments outside the window or already marked.
	Dups uint64
	// PktRecved counts every received Data.
	PktRecved uint64
	// TimedOut counts Interest timeouts.
	TimedOut uint64
	// InterestSent counts issued Interests, retransmissions included.
	InterestSent uint64
	// TotalBlocks counts contiguously received segments.
	TotalBlocks uint64
}

// PipelineFetcher downloads the segments of an object whose name is
// already known up to the segment component, keeping a sliding window
// of Interests in flight. Used for high-throughput transfers.
type PipelineFetcher struct {
	app  *engine.App
	name enc.Name

	mutex sync.Mutex

	sndUna uint64
	sndNxt uint64
	window congestion.Window

	ooo      [oooRingSize]bool
	oooCount int

	stats      PipelineStats
	retrans    map[uint64]int
	finalSeg   uint64
	hasFinal   bool
	terminated bool

	// OnSegment, when set, receives every in-window segment once.
	OnSegment func(seg uint64, data *spec.Data)

	onComplete func(stats PipelineStats)
	onError    func(err error)
}

// NewPipelineFetcher prepares a fetch of name (the object name up to,
// not including, the segment component). Exactly one of onComplete and
// onError is invoked, once.
func NewPipelineFetcher(app *engine.App, name enc.Name,
	onComplete func(stats PipelineStats), onError func(err error)) *PipelineFetcher {
	return &PipelineFetcher{
		app:        app,
		name:       name.Clone(),
		window:     congestion.NewRenoWindow(1, MaxWindow),
		retrans:    map[uint64]int{},
		onComplete: onComplete,
		onError:    onError,
	}
}

// log identifier
func (f *PipelineFetcher) String() string {
	return "pipeline-fetcher"
}

// Start issues the initial Interest for segment 0.
func (f *PipelineFetcher) Start() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.sndUna = 0
	f.sndNxt = 1
	return f.sendSegment(0)
}

// Stats returns a snapshot of the transfer counters.
func (f *PipelineFetcher) Stats() PipelineStats {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.stats
}

// WindowState returns a snapshot of the send window: the lowest
// un-acked segment, the next segment to issue, and the window size.
func (f *PipelineFetcher) WindowState() (sndUna uint64, sndNxt uint64, wnd int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.sndUna, f.sndNxt, f.window.Size()
}

// sendSegment issues one Interest. Requires the mutex.
func (f *PipelineFetcher) sendSegment(seg uint64) error {
	interest := spec.NewInterest(f.name.Append(enc.NewSegmentComponent(seg)))
	f.stats.InterestSent++
	_, err := f.app.ExpressInterest(interest,
		func(_ *spec.Interest, data *spec.Data) { f.handleData(data) },
		func(*spec.Interest) { f.handleTimeout(seg) })
	return err
}

func (f *PipelineFetcher) handleData(data *spec.Data) {
	f.mutex.Lock()

	f.stats.PktRecved++
	if f.terminated {
		f.mutex.Unlock()
		return
	}

	seg, ok := data.Name().At(-1).SegmentNumber()
	if !ok {
		f.mutex.Unlock()
		f.abort(ndn.ErrDataHasNoSegment)
		return
	}

	if fb, ok := data.FinalBlockID().Get(); ok {
		if final, ok := fb.SegmentNumber(); ok {
			f.finalSeg = final
			f.hasFinal = true
		}
	}

	switch {
	case seg == f.sndUna:
		// in-order: advance past every previously marked gap-filler
		f.advance()
		if f.OnSegment != nil {
			f.OnSegment(seg, data)
		}
		f.oooCount = 0
		f.window.HandleSignal(congestion.SigData)

		if f.hasFinal && f.sndUna == f.finalSeg+1 {
			f.terminated = true
			stats := f.stats
			f.mutex.Unlock()
			f.onComplete(stats)
			return
		}
		f.fillWindow()

	case seg > f.sndUna && seg < f.sndNxt:
		// out-of-order within the window
		if f.ooo[seg%oooRingSize] {
			f.stats.Dups++
			break
		}
		f.ooo[seg%oooRingSize] = true
		if f.OnSegment != nil {
			f.OnSegment(seg, data)
		}
		f.oooCount++
		if f.oooCount == fastRetransmitThreshold {
			// fast retransmit of the lowest un-acked segment
			log.Debug(f, "Fast retransmit", "seg", f.sndUna)
			f.oooCount = 0
			f.window.HandleSignal(congestion.SigFastRetransmit)
			if err := f.sendSegment(f.sndUna); err != nil {
				f.mutex.Unlock()
				f.abort(err)
				return
			}
		}

	default:
		// outside the window
		f.stats.Dups++
	}

	f.mutex.Unlock()
}

// advance moves snd_una over the in-order segment and every marked
// slot behind it. Requires the mutex.
func (f *PipelineFetcher) advance() {
	f.sndUna++
	f.stats.TotalBlocks++
	for f.ooo[f.sndUna%oooRingSize] {
		f.ooo[f.sndUna%oooRingSize] = false
		f.sndUna++
		f.stats.TotalBlocks++
	}
}

// fillWindow issues new Interests while the window allows. Requires
// the mutex.
func (f *PipelineFetcher) fillWindow() {
	for f.sndNxt-f.sndUna < uint64(f.window.Size()) {
		if f.hasFinal && f.sndNxt > f.finalSeg {
			return
		}
		if err := f.sendSegment(f.sndNxt); err != nil {
			log.Error(f, "Failed to send interest", "err", err, "seg", f.sndNxt)
			return
		}
		f.sndNxt++
	}
}

func (f *PipelineFetcher) handleTimeout(seg uint64) {
	f.mutex.Lock()

	if f.terminated {
		f.mutex.Unlock()
		return
	}

	f.stats.TimedOut++
	f.window.HandleSignal(congestion.SigTimeout)

	f.retrans[seg]++
	if f.retrans[seg] > maxRetransmissions {
		f.mutex.Unlock()
		f.abort(ndn.ErrDeadlineExceed)
		return
	}

	log.Debug(f, "Timeout, retransmitting", "seg", seg, "attempt", f.retrans[seg])
	if err := f.sendSegment(seg); err != nil {
		f.mutex.Unlock()
		f.abort(err)
		return
	}

	f.mutex.Unlock()
}

// abort terminates the whole fetch. Must be called without the mutex.
func (f *PipelineFetcher) abort(err error) {
	f.mutex.Lock()
	if f.terminated {
		f.mutex.Unlock()
		return
	}
	f.terminated = true
	f.mutex.Unlock()
	f.onError(err)
}
