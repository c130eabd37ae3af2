package coord

import (
	"sync"

	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/qrcode"
	"github.com/abelbrown/screenstate/internal/redux"
)

// Binding ties a child coordinator to a store. It reacts to state edges
// only, so repeated notifications with the same flags present nothing new.
type Binding struct {
	once  sync.Once
	stop  func()
	child ID
}

// Child is the coordinator the binding created.
func (b *Binding) Child() ID { return b.child }

// Stop unsubscribes without dismissing anything.
func (b *Binding) Stop() {
	b.once.Do(b.stop)
}

// BindMicrosurvey presents the survey under parent and follows the store:
// ShowPrivacy pushes the privacy notice, ShouldDismiss removes the survey
// coordinator with everything it presented.
func BindMicrosurvey(t *Tree, parent ID, s *redux.Store[microsurvey.State]) (*Binding, error) {
	child, err := t.Child(parent, RouteMicrosurvey)
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		prev = s.State()
		done bool
	)
	b := &Binding{child: child}

	// Held until stop is set so an early notification can call Stop.
	mu.Lock()
	defer mu.Unlock()
	id := s.Subscribe(func(st microsurvey.State) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		if st.ShowPrivacy && !prev.ShowPrivacy {
			_ = t.Push(child, RoutePrivacyNotice)
		}
		if st.ShouldDismiss && !prev.ShouldDismiss {
			done = true
			_ = t.Remove(child)
			b.Stop()
		}
		prev = st
	})
	b.stop = func() { s.Unsubscribe(id) }
	return b, nil
}

// BindQRCode presents the scanner under parent. A scanned URL is handed to
// open, then the scanner is removed; Dismiss removes it without opening.
func BindQRCode(t *Tree, parent ID, s *redux.Store[qrcode.State], open func(string)) (*Binding, error) {
	child, err := t.Child(parent, RouteQRCode)
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		prev = s.State()
		done bool
	)
	b := &Binding{child: child}

	// Held until stop is set so an early notification can call Stop.
	mu.Lock()
	defer mu.Unlock()
	id := s.Subscribe(func(st qrcode.State) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		scanned := st.ScannedURL != "" && st.ScannedURL != prev.ScannedURL
		if scanned || (st.ShouldDismiss && !prev.ShouldDismiss) {
			done = true
			_ = t.Remove(child)
			if scanned && open != nil {
				open(st.ScannedURL)
			}
			b.Stop()
		}
		prev = st
	})
	b.stop = func() { s.Unsubscribe(id) }
	return b, nil
}
