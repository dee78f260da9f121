package engine_test

import (
	"testing"
	"time"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/ndn"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/transport"
	"github.com/ndncomm/ndn-go/types/optional"
	tu "github.com/ndncomm/ndn-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

func executeTest(t *testing.T, main func(*transport.DummyFace, *engine.App, *engine.DummyTimer)) {
	tu.SetT(t)

	face := transport.NewDummyFace()
	timer := engine.NewDummyTimer()
	app := engine.NewApp(face, timer)
	require.NoError(t, app.Start())

	main(face, app, timer)

	app.Close()
}

// yield lets the engine goroutine drain posted tasks (timer fires).
func yield() {
	time.Sleep(20 * time.Millisecond)
}

func TestEngineStart(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		require.True(t, app.IsRunning())
	})
}

func TestConsumerBasic(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		hitCnt := 0

		name := tu.NoErr(enc.NameFromStr("/a"))
		interest := spec.NewInterest(name)
		id, err := app.ExpressInterest(interest,
			func(_ *spec.Interest, data *spec.Data) {
				hitCnt += 1
				require.Equal(t, "/a/seg=0", data.Name().String())
				require.Equal(t, []byte{0xaa}, data.Content().Join())
			},
			func(*spec.Interest) {
				require.Fail(t, "unexpected timeout")
			})
		require.NoError(t, err)
		require.Greater(t, id, uint64(0))

		// the interest went to the wire with the default lifetime
		buf := tu.NoErr(face.Consume())
		sent := tu.NoErr(spec.ReadPacket(buf)).Interest
		require.True(t, name.Equal(sent.Name()))
		require.Equal(t, ndn.DefaultInterestLifetime, sent.Lifetime().Unwrap())
		require.True(t, sent.Nonce().IsSet())

		// reply with the final segment
		data := spec.NewData(tu.NoErr(enc.NameFromStr("/a/seg=0")), &spec.DataConfig{
			FinalBlockID: optional.Some(enc.NewSegmentComponent(0)),
		}, enc.Wire{[]byte{0xaa}})
		wire := tu.NoErr(data.Encode(nil))
		require.NoError(t, face.FeedPacket(wire.Join()))

		require.Equal(t, 1, hitCnt)
		require.Equal(t, 0, app.PitSize())

		// a second copy is dropped silently
		require.NoError(t, face.FeedPacket(wire.Join()))
		require.Equal(t, 1, hitCnt)
	})
}

func TestInterestTimeout(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		dataCnt, timeoutCnt := 0, 0

		interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/b")))
		interest.SetLifetime(100 * time.Millisecond)
		_, err := app.ExpressInterest(interest,
			func(*spec.Interest, *spec.Data) { dataCnt += 1 },
			func(i *spec.Interest) {
				timeoutCnt += 1
				require.Equal(t, "/b", i.Name().String())
			})
		require.NoError(t, err)
		tu.NoErr(face.Consume())

		timer.MoveForward(50 * time.Millisecond)
		yield()
		require.Equal(t, 0, timeoutCnt)

		timer.MoveForward(60 * time.Millisecond)
		yield()
		require.Equal(t, 1, timeoutCnt)
		require.Equal(t, 0, dataCnt)
		require.Equal(t, 0, app.PitSize())

		// late Data does not call onData anymore
		data := spec.NewData(tu.NoErr(enc.NameFromStr("/b")), nil, enc.Wire{[]byte{0x01}})
		wire := tu.NoErr(data.Encode(nil))
		require.NoError(t, face.FeedPacket(wire.Join()))
		require.Equal(t, 0, dataCnt)
	})
}

func TestLocalTimeoutPrefix(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		timeoutCnt := 0

		interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/local/timeout/x")))
		interest.SetLifetime(50 * time.Millisecond)
		_, err := app.ExpressInterest(interest, nil,
			func(*spec.Interest) { timeoutCnt += 1 })
		require.NoError(t, err)
		require.Equal(t, 1, app.PitSize())

		// nothing goes to the wire
		_, err = face.Consume()
		require.Error(t, err)

		timer.MoveForward(60 * time.Millisecond)
		yield()
		require.Equal(t, 1, timeoutCnt)
		require.Equal(t, 0, app.PitSize())
	})
}

func TestRemovePendingInterest(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/c")))
		interest.SetLifetime(100 * time.Millisecond)
		id, err := app.ExpressInterest(interest, nil,
			func(*spec.Interest) { require.Fail(t, "timeout after removal") })
		require.NoError(t, err)
		tu.NoErr(face.Consume())
		require.Equal(t, 1, app.PitSize())

		app.RemovePendingInterest(id)
		require.Equal(t, 0, app.PitSize())
		// removing twice is a no-op
		app.RemovePendingInterest(id)
		require.Equal(t, 0, app.PitSize())

		timer.MoveForward(time.Second)
		yield()
	})
}

// gatedFace delays Open until the gate is released, to exercise the
// OPEN_REQUESTED queue deterministically.
type gatedFace struct {
	*transport.DummyFace
	gate chan struct{}
}

func (f *gatedFace) Open() error {
	<-f.gate
	return f.DummyFace.Open()
}

func TestRemoveBeforeInsert(t *testing.T) {
	tu.SetT(t)

	face := &gatedFace{transport.NewDummyFace(), make(chan struct{})}
	timer := engine.NewDummyTimer()
	app := engine.NewApp(face, timer)

	// express while UNOPEN: the send is queued and the connect starts
	interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/d")))
	interest.SetLifetime(100 * time.Millisecond)
	id, err := app.ExpressInterest(interest, nil,
		func(*spec.Interest) { require.Fail(t, "timeout for suppressed insertion") })
	require.NoError(t, err)

	// remove before the insertion happened
	app.RemovePendingInterest(id)

	// let the connection come up and the queue drain
	close(face.gate)
	yield()
	require.Equal(t, 0, app.PitSize())
	_, err = face.Consume()
	require.Error(t, err)

	timer.MoveForward(time.Second)
	yield()
	app.Close()
}

func TestQueuedSendsDrainInOrder(t *testing.T) {
	tu.SetT(t)

	face := &gatedFace{transport.NewDummyFace(), make(chan struct{})}
	timer := engine.NewDummyTimer()
	app := engine.NewApp(face, timer)

	for _, s := range []string{"/q/1", "/q/2", "/q/3"} {
		_, err := app.ExpressInterest(spec.NewInterest(tu.NoErr(enc.NameFromStr(s))), nil, nil)
		require.NoError(t, err)
	}

	close(face.gate)
	yield()

	for _, s := range []string{"/q/1", "/q/2", "/q/3"} {
		buf := tu.NoErr(face.Consume())
		sent := tu.NoErr(spec.ReadPacket(buf)).Interest
		require.Equal(t, s, sent.Name().String())
	}
	app.Close()
}

func TestIdAllocation(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		seen := map[uint64]bool{}
		for i := 0; i < 10; i++ {
			id, err := app.ExpressInterest(spec.NewInterest(tu.NoErr(enc.NameFromStr("/ids"))), nil, nil)
			require.NoError(t, err)
			require.Greater(t, id, uint64(0))
			require.False(t, seen[id])
			seen[id] = true
		}
		// filter ids come from the same pool
		fid := app.SetInterestFilter(tu.NoErr(enc.NameFromStr("/f")), func(enc.Name, *spec.Interest, uint64) {})
		require.False(t, seen[fid])
	})
}

func TestInterestFilters(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		order := []int{}

		f1 := app.SetInterestFilter(tu.NoErr(enc.NameFromStr("/app")),
			func(prefix enc.Name, interest *spec.Interest, filterId uint64) {
				order = append(order, 1)
				require.Equal(t, "/app", prefix.String())
				require.Equal(t, "/app/x", interest.Name().String())
			})
		f2 := app.SetInterestFilter(tu.NoErr(enc.NameFromStr("/app/x")),
			func(enc.Name, *spec.Interest, uint64) {
				order = append(order, 2)
			})
		app.SetInterestFilter(tu.NoErr(enc.NameFromStr("/other")),
			func(enc.Name, *spec.Interest, uint64) {
				order = append(order, 3)
			})

		interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/app/x")))
		interest.SetNonce(1)
		wire := tu.NoErr(interest.Encode())
		require.NoError(t, face.FeedPacket(wire.Join()))

		// both matching filters fire, in insertion order
		require.Equal(t, []int{1, 2}, order)

		// unset restores the prior state
		app.UnsetInterestFilter(f2)
		require.Equal(t, 2, app.FilterCount())
		app.UnsetInterestFilter(f2)
		require.Equal(t, 2, app.FilterCount())

		order = nil
		require.NoError(t, face.FeedPacket(wire.Join()))
		require.Equal(t, []int{1}, order)

		app.UnsetInterestFilter(f1)
	})
}

func TestPutData(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		name := tu.NoErr(enc.NameFromStr("/pub/1"))
		data := spec.NewData(name, &spec.DataConfig{
			Freshness: optional.Some(time.Second),
		}, enc.Wire{[]byte("payload")})
		require.NoError(t, app.PutData(data, nil))

		buf := tu.NoErr(face.Consume())
		parsed := tu.NoErr(spec.ReadPacket(buf)).Data
		require.True(t, name.Equal(parsed.Name()))
		require.Equal(t, []byte("payload"), parsed.Content().Join())
	})
}

func TestEncodedTooLarge(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		// Interest overhead with a fixed lifetime and a generated
		// nonce is 22 bytes; a component value of 8778 hits the
		// ceiling exactly.
		express := func(valSize int) (int, error) {
			name := enc.Name{enc.NewBytesComponent(make([]byte, valSize))}
			interest := spec.NewInterest(name)
			interest.SetLifetime(4 * time.Second)
			_, err := app.ExpressInterest(interest, nil, nil)
			if err != nil {
				return 0, err
			}
			buf := tu.NoErr(face.Consume())
			return len(buf), nil
		}

		size, err := express(8778)
		require.NoError(t, err)
		require.Equal(t, ndn.MaxNDNPacketSize, size)

		_, err = express(8779)
		require.ErrorIs(t, err, ndn.ErrEncodedTooLarge)
		require.Equal(t, 1, app.PitSize()) // only the first one
	})
}

func TestCloseCancelsTimers(t *testing.T) {
	tu.SetT(t)

	face := transport.NewDummyFace()
	timer := engine.NewDummyTimer()
	app := engine.NewApp(face, timer)
	require.NoError(t, app.Start())

	interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/z")))
	interest.SetLifetime(50 * time.Millisecond)
	_, err := app.ExpressInterest(interest, nil,
		func(*spec.Interest) { require.Fail(t, "timeout after close") })
	require.NoError(t, err)

	closed := false
	app.OnClose(func() { closed = true })

	require.NoError(t, app.Close())
	require.True(t, closed)
	require.Equal(t, 0, app.PitSize())

	timer.MoveForward(time.Second)
	yield()

	_, err = app.ExpressInterest(spec.NewInterest(tu.NoErr(enc.NameFromStr("/z"))), nil, nil)
	require.ErrorIs(t, err, ndn.ErrNotConnected)
}
