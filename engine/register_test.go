package engine_test

import (
	"testing"
	"time"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/ndn/mgmt"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/security/sign"
	"github.com/ndncomm/ndn-go/transport"
	"github.com/ndncomm/ndn-go/types/optional"
	tu "github.com/ndncomm/ndn-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

// replyToCommand answers the pending command interest with the given
// forwarder status code.
func replyToCommand(t *testing.T, face *transport.DummyFace, statusCode uint64) *spec.Interest {
	buf := tu.NoErr(face.Consume())
	cmd := tu.NoErr(spec.ReadPacket(buf)).Interest

	data := spec.NewData(cmd.Name(), &spec.DataConfig{
		Freshness: optional.Some(time.Second),
	}, enc.Wire{mgmt.MakeControlResponse(statusCode, "")})
	wire := tu.NoErr(data.Encode(sign.NewSha256Signer()))
	require.NoError(t, face.FeedPacket(wire.Join()))
	return cmd
}

func TestRegisterPrefixNotConfigured(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		prefix := tu.NoErr(enc.NameFromStr("/app"))
		_, err := app.RegisterPrefix(prefix, nil, nil, nil)
		require.ErrorIs(t, err, ndn.ErrNotConfigured)
	})
}

func TestRegisterPrefixSuccess(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		app.SetCommandSigningInfo(sign.NewSha256Signer())

		successCnt, failCnt, interestCnt := 0, 0, 0
		prefix := tu.NoErr(enc.NameFromStr("/app"))
		id, err := app.RegisterPrefix(prefix,
			func(p enc.Name, interest *spec.Interest, filterId uint64) {
				interestCnt += 1
				require.Equal(t, "/app", p.String())
				require.Equal(t, "/app/x", interest.Name().String())
			},
			func(enc.Name, error) { failCnt += 1 },
			func(p enc.Name, registeredId uint64) {
				successCnt += 1
				require.True(t, prefix.Equal(p))
			})
		require.NoError(t, err)
		require.Greater(t, id, uint64(0))

		cmd := replyToCommand(t, face, 200)

		// the command went under the local registration prefix with
		// the signed suffix appended
		cmdPrefix := tu.NoErr(enc.NameFromStr("/localhost/nfd/rib/register"))
		require.True(t, cmdPrefix.IsPrefix(cmd.Name()))
		require.Equal(t, len(cmdPrefix)+5, len(cmd.Name()))
		require.True(t, cmd.MustBeFresh())
		require.Equal(t, 2000*time.Millisecond, cmd.Lifetime().Unwrap())

		require.Equal(t, 1, successCnt)
		require.Equal(t, 0, failCnt)
		require.Equal(t, 1, app.FilterCount())

		// an inbound interest under the prefix reaches the callback
		interest := spec.NewInterest(tu.NoErr(enc.NameFromStr("/app/x")))
		interest.SetNonce(7)
		wire := tu.NoErr(interest.Encode())
		require.NoError(t, face.FeedPacket(wire.Join()))
		require.Equal(t, 1, interestCnt)

		// unregistration tears the filter down and notifies the
		// forwarder
		app.RemoveRegisteredPrefix(id)
		require.Equal(t, 0, app.FilterCount())
		buf := tu.NoErr(face.Consume())
		uncmd := tu.NoErr(spec.ReadPacket(buf)).Interest
		unPrefix := tu.NoErr(enc.NameFromStr("/localhost/nfd/rib/unregister"))
		require.True(t, unPrefix.IsPrefix(uncmd.Name()))
	})
}

func TestRegisterPrefixRefused(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		app.SetCommandSigningInfo(sign.NewSha256Signer())

		successCnt, failCnt := 0, 0
		prefix := tu.NoErr(enc.NameFromStr("/app"))
		_, err := app.RegisterPrefix(prefix,
			func(enc.Name, *spec.Interest, uint64) {},
			func(p enc.Name, err error) {
				failCnt += 1
				require.True(t, prefix.Equal(p))
				regErr := ndn.ErrRegistrationFailed{}
				require.ErrorAs(t, err, &regErr)
				require.Equal(t, uint64(403), regErr.Status)
			},
			func(enc.Name, uint64) { successCnt += 1 })
		require.NoError(t, err)

		replyToCommand(t, face, 403)

		require.Equal(t, 0, successCnt)
		require.Equal(t, 1, failCnt)
		require.Equal(t, 0, app.FilterCount())
	})
}

func TestRegisterPrefixTimeout(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		app.SetCommandSigningInfo(sign.NewSha256Signer())

		failCnt := 0
		prefix := tu.NoErr(enc.NameFromStr("/app"))
		_, err := app.RegisterPrefix(prefix, nil,
			func(enc.Name, error) { failCnt += 1 },
			nil)
		require.NoError(t, err)
		tu.NoErr(face.Consume())

		timer.MoveForward(2100 * time.Millisecond)
		yield()
		require.Equal(t, 1, failCnt)
	})
}

func TestRemoveRegisteredPrefixBeforeAck(t *testing.T) {
	executeTest(t, func(face *transport.DummyFace, app *engine.App, timer *engine.DummyTimer) {
		app.SetCommandSigningInfo(sign.NewSha256Signer())

		successCnt := 0
		prefix := tu.NoErr(enc.NameFromStr("/app"))
		id, err := app.RegisterPrefix(prefix,
			func(enc.Name, *spec.Interest, uint64) {},
			nil,
			func(enc.Name, uint64) { successCnt += 1 })
		require.NoError(t, err)

		// removal races ahead of the forwarder ACK
		app.RemoveRegisteredPrefix(id)

		replyToCommand(t, face, 200)

		// the insertion was suppressed
		require.Equal(t, 0, successCnt)
		require.Equal(t, 0, app.FilterCount())
	})
}
