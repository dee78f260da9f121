package engine

import (
	"time"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/log"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/ndn/mgmt"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/security/sign"
	"github.com/ndncomm/ndn-go/types/optional"
)

// Command lifetimes: a local forwarder answers fast, a remote one gets
// the default Interest lifetime.
const (
	localCommandLifetime  = 2000 * time.Millisecond
	remoteCommandLifetime = 4000 * time.Millisecond
)

// OnRegisterSuccess is invoked once when the forwarder acknowledged the
// registration.
type OnRegisterSuccess func(prefix enc.Name, registeredPrefixId uint64)

// OnRegisterFailed is invoked once when registration failed: refused
// status, undecodable response, or timeout.
type OnRegisterFailed func(prefix enc.Name, err error)

// RegisterPrefix registers prefix with the forwarder and, once the
// forwarder acknowledges, installs onInterest as a filter for it.
// Command signing must have been configured with SetCommandSigningInfo.
// The returned id identifies the registration for
// RemoveRegisteredPrefix, which may be called before the forwarder
// reply arrives.
func (a *App) RegisterPrefix(prefix enc.Name, onInterest OnInterestCallback,
	onRegisterFailed OnRegisterFailed, onRegisterSuccess OnRegisterSuccess) (uint64, error) {

	prefix = prefix.Clone()

	id, cmdSigner, err := func() (uint64, *sign.CommandSigner, error) {
		a.mutex.Lock()
		defer a.mutex.Unlock()
		if a.state == stateClosed {
			return 0, nil, ndn.ErrNotConnected
		}
		if a.cmdSigner == nil {
			return 0, nil, ndn.ErrNotConfigured
		}
		return a.allocIdLocked(), a.cmdSigner, nil
	}()
	if err != nil {
		return 0, err
	}

	local := a.face.IsLocal()
	params := mgmt.ControlParameters{
		Name:  prefix,
		Flags: optional.Some(uint64(mgmt.RouteFlagChildInherit)),
	}
	cmdName := mgmt.RibRegisterPrefix(local).
		Append(enc.NewBytesComponent(params.Bytes()))

	signedName, err := cmdSigner.SignName(cmdName)
	if err != nil {
		return 0, err
	}

	interest := spec.NewInterest(signedName)
	interest.SetMustBeFresh(true)
	if local {
		interest.SetLifetime(localCommandLifetime)
	} else {
		interest.SetLifetime(remoteCommandLifetime)
	}

	_, err = a.ExpressInterest(interest,
		func(_ *spec.Interest, data *spec.Data) {
			resp, err := mgmt.ParseControlResponse(data.Content().Join())
			if err != nil {
				log.Warn(a, "Undecodable registration response", "err", err, "prefix", prefix)
				if onRegisterFailed != nil {
					onRegisterFailed(prefix, ndn.ErrRegistrationFailed{Cause: err})
				}
				return
			}
			if resp.StatusCode != 200 {
				log.Warn(a, "Prefix registration refused", "status", resp.StatusCode, "prefix", prefix)
				if onRegisterFailed != nil {
					onRegisterFailed(prefix, ndn.ErrRegistrationFailed{Status: resp.StatusCode})
				}
				return
			}

			if !a.insertPrefixEntry(id, prefix, onInterest) {
				// removal was requested while the command was in flight
				return
			}
			log.Debug(a, "Prefix registered", "prefix", prefix)
			if onRegisterSuccess != nil {
				onRegisterSuccess(prefix, id)
			}
		},
		func(*spec.Interest) {
			log.Warn(a, "Prefix registration timed out", "prefix", prefix)
			if onRegisterFailed != nil {
				onRegisterFailed(prefix, ndn.ErrRegistrationFailed{Cause: ndn.ErrDeadlineExceed})
			}
		})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// insertPrefixEntry commits a registration after the forwarder ACK,
// unless its removal was requested first.
func (a *App) insertPrefixEntry(id uint64, prefix enc.Name, onInterest OnInterestCallback) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if _, ok := a.pendingPrefixRemovals[id]; ok {
		delete(a.pendingPrefixRemovals, id)
		return false
	}

	entry := &prefixEntry{id: id, prefix: prefix}
	if onInterest != nil {
		filterId := a.allocIdLocked()
		a.filters = append(a.filters, &filterEntry{
			id:         filterId,
			prefix:     prefix,
			onInterest: onInterest,
		})
		entry.filterId = filterId
	}
	a.prefixes[id] = entry
	return true
}

// RemoveRegisteredPrefix removes a registration and its related filter,
// and tells the forwarder to drop the route. Calling it before the
// registration was acknowledged records a marker that suppresses the
// later insertion.
func (a *App) RemoveRegisteredPrefix(id uint64) {
	entry := func() *prefixEntry {
		a.mutex.Lock()
		defer a.mutex.Unlock()

		entry, ok := a.prefixes[id]
		if !ok {
			a.pendingPrefixRemovals[id] = struct{}{}
			return nil
		}
		delete(a.prefixes, id)
		if entry.filterId != 0 {
			a.unsetInterestFilterLocked(entry.filterId)
		}
		return entry
	}()
	if entry == nil {
		return
	}

	a.unregister(entry.prefix)
}

// unregister sends a best-effort rib/unregister command.
func (a *App) unregister(prefix enc.Name) {
	a.mutex.Lock()
	cmdSigner := a.cmdSigner
	a.mutex.Unlock()
	if cmdSigner == nil {
		return
	}

	local := a.face.IsLocal()
	params := mgmt.ControlParameters{Name: prefix}
	cmdName := mgmt.RibUnregisterPrefix(local).
		Append(enc.NewBytesComponent(params.Bytes()))

	signedName, err := cmdSigner.SignName(cmdName)
	if err != nil {
		log.Warn(a, "Failed to sign unregister command", "err", err, "prefix", prefix)
		return
	}

	interest := spec.NewInterest(signedName)
	interest.SetMustBeFresh(true)
	if local {
		interest.SetLifetime(localCommandLifetime)
	} else {
		interest.SetLifetime(remoteCommandLifetime)
	}

	if _, err := a.ExpressInterest(interest, nil, nil); err != nil {
		log.Warn(a, "Failed to send unregister command", "err", err, "prefix", prefix)
	} else {
		log.Debug(a, "Prefix unregistered", "prefix", prefix)
	}
}
