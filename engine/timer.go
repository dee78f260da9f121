package engine

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/ndncomm/ndn-go/ndn"
)

// Timer is the wall-clock ndn.Timer used outside tests.
type Timer struct{}

func NewTimer() ndn.Timer {
	return Timer{}
}

func (Timer) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (Timer) Schedule(d time.Duration, f func()) func() error {
	t := time.AfterFunc(d, f)
	return func() error {
		if t != nil {
			t.Stop()
			t = nil
			return nil
		}
		return fmt.Errorf("event has already been canceled")
	}
}

func (Timer) Now() time.Time {
	return time.Now()
}

func (Timer) Nonce() []byte {
	buf := make([]byte, 8)
	n, _ := rand.Read(buf) // should always succeed
	return buf[:n]
}
