// Package remote selects which remote content backend serves the process.
package remote

import (
	"sync"

	"github.com/fpt/codeassist/pkg/domain"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
)

var logger = pkgLogger.NewComponentLogger("remote")

// State is the backend detection state. It moves from StateUndetected to
// one of the other two exactly once.
type State int

const (
	StateUndetected State = iota
	StateUsable
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateUsable:
		return "usable"
	case StateUnavailable:
		return "unavailable"
	default:
		return "undetected"
	}
}

// Detector picks the first available provider in preference order and
// remembers the outcome for the life of the process.
type Detector struct {
	candidates []domain.RemoteProvider

	once     sync.Once
	mu       sync.RWMutex
	state    State
	selected domain.RemoteProvider
}

// NewDetector orders providers by preference. Names missing from the
// preference list are not considered; an empty list keeps the given order.
func NewDetector(preference []string, providers ...domain.RemoteProvider) *Detector {
	if len(preference) == 0 {
		return &Detector{candidates: providers}
	}
	byName := make(map[string]domain.RemoteProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	var ordered []domain.RemoteProvider
	for _, name := range preference {
		if p, ok := byName[name]; ok {
			ordered = append(ordered, p)
			delete(byName, name)
		} else {
			logger.WarnWithIntention(pkgLogger.IntentionWarning, "Unknown remote backend in preference list", "backend", name)
		}
	}
	return &Detector{candidates: ordered}
}

// Detect runs detection on first use and returns the chosen provider.
func (d *Detector) Detect() (domain.RemoteProvider, bool) {
	d.once.Do(d.detect)
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected, d.state == StateUsable
}

// detectionState reports the state without triggering detection.
func (d *Detector) detectionState() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Selected returns the chosen backend name, or "" when none is usable.
func (d *Detector) Selected() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.selected == nil {
		return ""
	}
	return d.selected.Name()
}

func (d *Detector) detect() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.candidates {
		if p.Available() {
			d.selected = p
			d.state = StateUsable
			logger.DebugWithIntention(pkgLogger.IntentionRemote, "Remote backend selected", "backend", p.Name())
			return
		}
		logger.DebugWithIntention(pkgLogger.IntentionRemote, "Remote backend not available", "backend", p.Name())
	}
	d.state = StateUnavailable
	logger.WarnWithIntention(pkgLogger.IntentionWarning, "No remote backend available; GitHub tools are disabled")
}
