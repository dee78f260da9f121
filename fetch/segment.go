package fetch

import (
	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/log"
	"github.com/ndncomm/ndn-go/ndn"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
)

// VerifySegment decides whether a fetched segment is acceptable.
type VerifySegment func(data *spec.Data) bool

// DontVerifySegment accepts every segment.
func DontVerifySegment(*spec.Data) bool { return true }

// SegmentFetcher downloads all segments of an object whose version is
// not known in advance. The first Interest carries ChildSelector=1 and
// MustBeFresh to discover the latest version; every later Interest
// names an explicit segment under the discovered version.
type SegmentFetcher struct {
	app          *engine.App
	baseInterest *spec.Interest
	verify       VerifySegment
	onComplete   func(content []byte)
	onError      func(err error)

	versionedPrefix enc.Name
	parts           [][]byte
	done            bool
}

// FetchSegments starts fetching under the prefix named by baseInterest.
// Exactly one of onComplete and onError is invoked, once.
func FetchSegments(app *engine.App, baseInterest *spec.Interest, verify VerifySegment,
	onComplete func(content []byte), onError func(err error)) error {

	if verify == nil {
		verify = DontVerifySegment
	}
	f := &SegmentFetcher{
		app:          app,
		baseInterest: baseInterest.Clone(),
		verify:       verify,
		onComplete:   onComplete,
		onError:      onError,
	}

	discover := f.baseInterest.Clone()
	discover.SetChildSelector(1)
	discover.SetMustBeFresh(true)
	_, err := app.ExpressInterest(discover, f.onData, f.onTimeout)
	return err
}

// log identifier
func (f *SegmentFetcher) String() string {
	return "segment-fetcher"
}

func (f *SegmentFetcher) fail(err error) {
	if f.done {
		return
	}
	f.done = true
	f.onError(err)
}

func (f *SegmentFetcher) onData(_ *spec.Interest, data *spec.Data) {
	if f.done {
		return
	}

	if !f.verify(data) {
		f.fail(ndn.ErrSegmentVerificationFailed)
		return
	}

	lastComp := data.Name().At(-1)
	received, ok := lastComp.SegmentNumber()
	if !ok {
		f.fail(ndn.ErrDataHasNoSegment)
		return
	}

	// the version is the second-to-last component of the first reply
	if f.versionedPrefix == nil {
		f.versionedPrefix = data.Name().Prefix(-1).Clone()
	}

	// a discovery reply for segment K != 0, or any gap, restarts the
	// fetch at the expected segment
	expected := uint64(len(f.parts))
	if received != expected {
		log.Debug(f, "Out-of-sequence segment, refetching", "received", received, "expected", expected)
		f.fetchSegment(expected)
		return
	}

	f.parts = append(f.parts, data.Content().Join())

	if fb, ok := data.FinalBlockID().Get(); ok && fb.Equal(lastComp) {
		f.done = true
		content := []byte{}
		for _, p := range f.parts {
			content = append(content, p...)
		}
		f.onComplete(content)
		return
	}

	f.fetchSegment(uint64(len(f.parts)))
}

// fetchSegment asks for one explicit segment under the discovered
// version. The original Interest is copied to preserve its selectors;
// setting the name regenerates the nonce.
func (f *SegmentFetcher) fetchSegment(seg uint64) {
	interest := f.baseInterest.Clone()
	interest.SetName(f.versionedPrefix.Append(enc.NewSegmentComponent(seg)))
	interest.SetMustBeFresh(false)

	if _, err := f.app.ExpressInterest(interest, f.onData, f.onTimeout); err != nil {
		f.fail(err)
	}
}

func (f *SegmentFetcher) onTimeout(*spec.Interest) {
	f.fail(ndn.ErrDeadlineExceed)
}
