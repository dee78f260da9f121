// Package engine implements the client-side NDN engine: it multiplexes
// Interests and Data over one face, owns the pending-interest table,
// the interest-filter table and the registered-prefix table, and runs
// every callback on a single main goroutine.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/log"
	"github.com/ndncomm/ndn-go/ndn"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/security/sign"
	"github.com/ndncomm/ndn-go/utils"
)

// OnDataCallback is invoked once when a pending Interest is satisfied.
type OnDataCallback func(interest *spec.Interest, data *spec.Data)

// OnTimeoutCallback is invoked once when a pending Interest expires.
type OnTimeoutCallback func(interest *spec.Interest)

// OnInterestCallback is invoked for every inbound Interest matching a
// registered filter.
type OnInterestCallback func(prefix enc.Name, interest *spec.Interest, filterId uint64)

type connState int

const (
	stateUnopen connState = iota
	stateOpenRequested
	stateOpened
	stateClosed
)

type pitEntry struct {
	id        uint64
	interest  *spec.Interest
	onData    OnDataCallback
	onTimeout OnTimeoutCallback
	node      *NameTrie[pitList]
	cancel    func() error
}

type pitList []*pitEntry

type filterEntry struct {
	id         uint64
	prefix     enc.Name
	onInterest OnInterestCallback
}

type prefixEntry struct {
	id       uint64
	prefix   enc.Name
	filterId uint64
}

// localTimeoutPrefix is the reserved name space for pure timers:
// Interests under it schedule a timeout callback but never hit the wire.
var localTimeoutPrefix = enc.Name{
	enc.NewGenericComponent("local"),
	enc.NewGenericComponent("timeout"),
}

// App is the client engine attached to one face.
type App struct {
	face  ndn.Face
	timer ndn.Timer

	mutex  sync.Mutex
	state  connState
	nextId uint64

	pit      *NameTrie[pitList]
	pitIndex map[uint64]*pitEntry
	filters  []*filterEntry
	prefixes map[uint64]*prefixEntry

	// removal markers recorded before the corresponding insertion
	pendingPitRemovals    map[uint64]struct{}
	pendingPrefixRemovals map[uint64]struct{}

	// operations issued while the connection was being opened
	onConnected []func()
	onCloseCbs  []func()

	cmdSigner *sign.CommandSigner

	inQueue   chan []byte
	taskQueue chan func()
	closeCh   chan struct{}
	running   atomic.Bool
}

// NewApp creates an engine over the face. The connection is opened
// lazily on the first operation that needs it, or explicitly by Start.
func NewApp(face ndn.Face, timer ndn.Timer) *App {
	if face == nil || timer == nil {
		return nil
	}
	return &App{
		face:  face,
		timer: timer,

		pit:      NewNameTrie[pitList](),
		pitIndex: map[uint64]*pitEntry{},
		prefixes: map[uint64]*prefixEntry{},

		pendingPitRemovals:    map[uint64]struct{}{},
		pendingPrefixRemovals: map[uint64]struct{}{},

		inQueue:   make(chan []byte, 256),
		taskQueue: make(chan func(), 512),
		closeCh:   make(chan struct{}),
	}
}

func (a *App) String() string {
	return "engine"
}

// Timer returns the engine's timer.
func (a *App) Timer() ndn.Timer {
	return a.timer
}

// Face returns the engine's face.
func (a *App) Face() ndn.Face {
	return a.face
}

// IsRunning returns whether the main loop is processing packets.
func (a *App) IsRunning() bool {
	return a.running.Load()
}

// Post enqueues a task onto the engine goroutine.
func (a *App) Post(task func()) {
	select {
	case a.taskQueue <- task:
	default:
		// Do not block in case this is called from the main
		// goroutine itself.
		go func() { a.taskQueue <- task }()
	}
}

func (a *App) allocIdLocked() uint64 {
	a.nextId++
	return a.nextId
}

// Start opens the connection and blocks until it is up or failed.
func (a *App) Start() error {
	ch := make(chan error, 1)

	a.mutex.Lock()
	switch a.state {
	case stateOpened:
		a.mutex.Unlock()
		return nil
	case stateClosed:
		a.mutex.Unlock()
		return ndn.ErrNotConnected
	case stateUnopen:
		a.connectLocked()
	case stateOpenRequested:
	}
	a.onConnected = append(a.onConnected, func() { ch <- nil })
	a.mutex.Unlock()

	select {
	case err := <-ch:
		return err
	case <-a.waitClosed():
		return ndn.ErrNotConnected
	}
}

func (a *App) waitClosed() <-chan struct{} {
	return a.closeCh
}

// connectLocked moves UNOPEN to OPEN_REQUESTED and opens the face in
// the background. One reconnect attempt is made before giving up.
func (a *App) connectLocked() {
	a.state = stateOpenRequested

	a.face.OnPacket(func(frame []byte) {
		// copy the frame so the face can reuse its buffer
		frameCopy := make([]byte, len(frame))
		copy(frameCopy, frame)
		a.inQueue <- frameCopy
	})
	a.face.OnError(func(err error) {
		log.Error(a, "Error on face", "err", err)
		a.Post(func() { a.Shutdown() })
	})

	if !a.running.Swap(true) {
		go a.run()
	}

	go func() {
		err := a.face.Open()
		if err != nil {
			log.Warn(a, "Face open failed, retrying once", "err", err)
			err = a.face.Open()
			if err != nil {
				err = fmt.Errorf("%w: %v", ndn.ErrHostExhausted, err)
			}
		}
		a.Post(func() { a.onConnectDone(err) })
	}()
}

// onConnectDone runs on the main goroutine when the face open attempt
// finished, draining the queued operations in insertion order.
func (a *App) onConnectDone(err error) {
	queued := func() []func() {
		a.mutex.Lock()
		defer a.mutex.Unlock()
		if a.state != stateOpenRequested {
			return nil
		}
		if err != nil {
			return nil
		}
		a.state = stateOpened
		q := a.onConnected
		a.onConnected = nil
		return q
	}()

	if err != nil {
		log.Error(a, "Unable to connect to forwarder", "err", err)
		a.Shutdown()
		return
	}

	for _, f := range queued {
		f()
	}
}

func (a *App) run() {
	for {
		select {
		case frame := <-a.inQueue:
			a.onPacket(frame)
		case task := <-a.taskQueue:
			task()
		case <-a.closeCh:
			return
		}
	}
}

// ExpressInterest sends an Interest and returns the pending-interest
// id. Exactly one of onData and onTimeout is invoked, at most once.
// The caller's Interest is never retained or mutated.
func (a *App) ExpressInterest(interest *spec.Interest, onData OnDataCallback, onTimeout OnTimeoutCallback) (uint64, error) {
	if interest == nil || len(interest.Name()) == 0 {
		return 0, ndn.ErrInvalidValue{Item: "interest", Value: interest}
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.state == stateClosed {
		return 0, ndn.ErrNotConnected
	}

	id := a.allocIdLocked()
	interest = interest.Clone()
	if !interest.Lifetime().IsSet() {
		interest.SetLifetime(ndn.DefaultInterestLifetime)
	}

	if a.state != stateOpened {
		a.onConnected = append(a.onConnected, func() {
			a.mutex.Lock()
			defer a.mutex.Unlock()
			if err := a.sendInterestLocked(id, interest, onData, onTimeout); err != nil {
				log.Error(a, "Failed to send queued interest", "err", err, "name", interest.Name())
			}
		})
		if a.state == stateUnopen {
			a.connectLocked()
		}
		return id, nil
	}

	return id, a.sendInterestLocked(id, interest, onData, onTimeout)
}

// ExpressName is the name-plus-template form of ExpressInterest.
func (a *App) ExpressName(name enc.Name, template *spec.Interest, onData OnDataCallback, onTimeout OnTimeoutCallback) (uint64, error) {
	var interest *spec.Interest
	if template != nil {
		interest = template.Clone()
		interest.SetName(name)
	} else {
		interest = spec.NewInterest(name)
	}
	return a.ExpressInterest(interest, onData, onTimeout)
}

func (a *App) sendInterestLocked(id uint64, interest *spec.Interest, onData OnDataCallback, onTimeout OnTimeoutCallback) error {
	if !interest.Nonce().IsSet() {
		interest.SetNonce(utils.ConvertNonce(a.timer.Nonce()))
	}

	wire, err := interest.Encode()
	if err != nil {
		return err
	}
	if wire.Length() > ndn.MaxNDNPacketSize {
		return ndn.ErrEncodedTooLarge
	}

	// a removal requested before this insertion suppresses it
	if _, ok := a.pendingPitRemovals[id]; ok {
		delete(a.pendingPitRemovals, id)
		return nil
	}

	lifetime := interest.Lifetime().GetOr(ndn.DefaultInterestLifetime)
	node := a.pit.MatchAlways(interest.Name())
	entry := &pitEntry{
		id:        id,
		interest:  interest,
		onData:    onData,
		onTimeout: onTimeout,
		node:      node,
	}
	entry.cancel = a.timer.Schedule(lifetime, func() {
		a.Post(func() { a.onInterestTimeout(id) })
	})
	node.SetValue(append(node.Value(), entry))
	a.pitIndex[id] = entry

	// the reserved prefix schedules a callback without touching the wire
	if localTimeoutPrefix.IsPrefix(interest.Name()) {
		return nil
	}

	if err := a.face.Send(wire); err != nil {
		log.Error(a, "Failed to send interest", "err", err, "name", interest.Name())
		return err
	}
	log.Trace(a, "Interest sent", "name", interest.Name())
	return nil
}

// onInterestTimeout runs on the main goroutine when a pending Interest
// lifetime passed.
func (a *App) onInterestTimeout(id uint64) {
	entry := func() *pitEntry {
		a.mutex.Lock()
		defer a.mutex.Unlock()
		entry, ok := a.pitIndex[id]
		if !ok {
			return nil // satisfied or removed in the meantime
		}
		a.removePitEntryLocked(entry)
		return entry
	}()

	if entry != nil && entry.onTimeout != nil {
		entry.onTimeout(entry.interest)
	}
}

// removePitEntryLocked unlinks the entry from the trie node and the id
// index. The timer is not touched.
func (a *App) removePitEntryLocked(entry *pitEntry) {
	delete(a.pitIndex, entry.id)
	entries := entry.node.Value()
	for i, e := range entries {
		if e == entry {
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			break
		}
	}
	entry.node.SetValue(entries)
	entry.node.PruneIf(func(lst pitList) bool { return len(lst) == 0 })
}

// RemovePendingInterest cancels a pending Interest. No timeout callback
// fires after it returns. A removal that arrives before the insertion
// (a queued send) is recorded and suppresses the later insertion.
func (a *App) RemovePendingInterest(id uint64) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	entry, ok := a.pitIndex[id]
	if !ok {
		a.pendingPitRemovals[id] = struct{}{}
		return
	}
	entry.cancel()
	a.removePitEntryLocked(entry)
}

// PitSize returns the number of pending Interests.
func (a *App) PitSize() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.pitIndex)
}

// SetInterestFilter installs a local filter. No forwarder interaction.
func (a *App) SetInterestFilter(prefix enc.Name, onInterest OnInterestCallback) uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	id := a.allocIdLocked()
	a.filters = append(a.filters, &filterEntry{
		id:         id,
		prefix:     prefix.Clone(),
		onInterest: onInterest,
	})
	return id
}

// UnsetInterestFilter removes a filter. Removing twice is a no-op.
func (a *App) UnsetInterestFilter(id uint64) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.unsetInterestFilterLocked(id)
}

func (a *App) unsetInterestFilterLocked(id uint64) {
	for i, f := range a.filters {
		if f.id == id {
			a.filters = append(a.filters[:i], a.filters[i+1:]...)
			return
		}
	}
}

// FilterCount returns the number of installed interest filters.
func (a *App) FilterCount() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.filters)
}

// PutData signs, encodes and sends a Data packet.
func (a *App) PutData(data *spec.Data, signer ndn.Signer) error {
	a.mutex.Lock()
	opened := a.state == stateOpened
	a.mutex.Unlock()
	if !opened {
		return ndn.ErrNotConnected
	}

	wire, err := data.Encode(signer)
	if err != nil {
		return err
	}
	if wire.Length() > ndn.MaxNDNPacketSize {
		return ndn.ErrEncodedTooLarge
	}
	return a.face.Send(wire)
}

// SetCommandSigningInfo configures the signer used for command
// Interests. The signer's key locator names the signing certificate.
func (a *App) SetCommandSigningInfo(signer ndn.Signer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.cmdSigner = sign.NewCommandSigner(a.timer, signer)
}

// OnClose registers a callback invoked once when the engine closes.
func (a *App) OnClose(cb func()) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.onCloseCbs = append(a.onCloseCbs, cb)
}

// onPacket processes one inbound TLV element on the main goroutine.
func (a *App) onPacket(frame []byte) {
	pkt, err := spec.ReadPacket(frame)
	if err != nil {
		// recoverable, drop the element
		log.Error(a, "Failed to parse packet", "err", err)
		return
	}

	if pkt.Data != nil {
		log.Trace(a, "Data received", "name", pkt.Data.Name())
		a.onData(pkt.Data)
	} else if pkt.Interest != nil {
		log.Trace(a, "Interest received", "name", pkt.Interest.Name())
		a.onIncomingInterest(pkt.Interest)
	}
}

// onData satisfies every pending Interest whose name is a prefix of the
// Data name. Matched entries are collected under the lock and their
// callbacks run after it is released.
func (a *App) onData(data *spec.Data) {
	matched := func() []*pitEntry {
		a.mutex.Lock()
		defer a.mutex.Unlock()

		n := a.pit.PrefixMatch(data.Name())
		ret := make([]*pitEntry, 0, 4)
		for cur := n; cur != nil; cur = cur.Parent() {
			entries := cur.Value()
			for i := 0; i < len(entries); i++ {
				entry := entries[i]
				entry.cancel()
				delete(a.pitIndex, entry.id)
				entries[i] = entries[len(entries)-1]
				entries = entries[:len(entries)-1]
				i-- // recheck the current index
				ret = append(ret, entry)
			}
			cur.SetValue(entries)
		}
		n.PruneIf(func(lst pitList) bool { return len(lst) == 0 })
		return ret
	}()

	if len(matched) == 0 {
		log.Warn(a, "Received data for an unknown interest - DROP", "name", data.Name())
		return
	}

	for _, entry := range matched {
		if entry.onData != nil {
			entry.onData(entry.interest, data)
		}
	}
}

// onIncomingInterest dispatches to every matching filter in insertion
// order. Callbacks run to completion before the next element.
func (a *App) onIncomingInterest(interest *spec.Interest) {
	matched := func() []*filterEntry {
		a.mutex.Lock()
		defer a.mutex.Unlock()
		ret := make([]*filterEntry, 0, 4)
		for _, f := range a.filters {
			if f.prefix.IsPrefix(interest.Name()) {
				ret = append(ret, f)
			}
		}
		return ret
	}()

	if len(matched) == 0 {
		log.Warn(a, "No filter for interest", "name", interest.Name())
		return
	}

	for _, f := range matched {
		f.onInterest(f.prefix, interest, f.id)
	}
}

// Close shuts the engine down: every outstanding timer is cancelled,
// the tables are cleared and the face is closed. No callback fires
// afterwards.
func (a *App) Close() error {
	return a.Shutdown()
}

// Shutdown implements Close; it is safe to call more than once.
func (a *App) Shutdown() error {
	cbs, wasOpen := func() ([]func(), bool) {
		a.mutex.Lock()
		defer a.mutex.Unlock()
		if a.state == stateClosed {
			return nil, false
		}
		a.state = stateClosed

		for _, entry := range a.pitIndex {
			entry.cancel()
		}
		a.pitIndex = map[uint64]*pitEntry{}
		a.pit = NewNameTrie[pitList]()
		a.filters = nil
		a.prefixes = map[uint64]*prefixEntry{}
		a.onConnected = nil

		cbs := a.onCloseCbs
		a.onCloseCbs = nil
		return cbs, true
	}()
	if !wasOpen {
		return fmt.Errorf("engine is not running")
	}

	if a.running.Swap(false) {
		close(a.closeCh)
	}
	if a.face.IsRunning() {
		a.face.Close()
	}

	for _, cb := range cbs {
		cb()
	}
	return nil
}
