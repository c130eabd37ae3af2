// Package qrcode holds the QR code scanner screen state.
package qrcode

import (
	"errors"
	"net/url"
	"strings"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/redux"
)

// ErrNotURL is reported when a scanned code is not an http(s) URL.
var ErrNotURL = errors.New("qrcode: scanned text is not a web address")

// State is the scanner for one window.
type State struct {
	Window        redux.WindowUUID
	ScannedURL    string
	ShouldDismiss bool
	Err           string
}

func NewState(w redux.WindowUUID) State { return State{Window: w} }

// CodeScanned carries the raw decoded text of a QR code.
type CodeScanned struct {
	redux.ActionMeta
	Text string
}

type Dismiss struct{ redux.ActionMeta }

// ScannerDidAppear resets the scanner when it is shown again.
type ScannerDidAppear struct{ redux.ActionMeta }

// ParseURL accepts absolute http and https URLs only.
func ParseURL(text string) (string, error) {
	text = strings.TrimSpace(text)
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return "", ErrNotURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), nil
	}
	return "", ErrNotURL
}

// Reduce is the scanner reducer.
func Reduce(state State, action redux.Action) State {
	if !redux.Reaches(action, state.Window) {
		return state
	}

	next := state
	switch a := action.(type) {
	case ScannerDidAppear:
		next = NewState(state.Window)
	case CodeScanned:
		u, err := ParseURL(a.Text)
		if err != nil {
			next.Err = err.Error()
			return next
		}
		next.ScannedURL = u
		next.Err = ""
	case Dismiss:
		next.ShouldDismiss = true
	default:
		return state
	}
	return next
}

// NewMiddleware logs scans. Scanned text is not logged.
func NewMiddleware(log logging.Logger) redux.Middleware[State] {
	if log == nil {
		log = logging.Nop()
	}
	return func(state State, action redux.Action, _ redux.Dispatcher) {
		if !redux.Reaches(action, state.Window) {
			return
		}
		if a, ok := action.(CodeScanned); ok {
			if _, err := ParseURL(a.Text); err != nil {
				log.Log("scanned code rejected", logging.Info, logging.CategoryQRCode)
				return
			}
			log.Log("scanned code accepted", logging.Debug, logging.CategoryQRCode)
		}
	}
}
