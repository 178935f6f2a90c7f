package app

import (
	"log"
	"sync"
	"time"

	"buzz-quiz-service/internal/buzz"
	"buzz-quiz-service/internal/domain"
)

const (
	flashDuration   = 150 * time.Millisecond
	celebrateBlinks = 3
	celebrateDelay  = 250 * time.Millisecond
)

// Lights drives the handset LEDs.
type Lights interface {
	SetLights(on [domain.ControllerCount]bool) error
}

// lightSwitch forwards to the connected device and is a no-op otherwise.
// Effects use fixed sleeps and may overlap.
type lightSwitch struct {
	mu     sync.RWMutex
	target Lights
	sleep  func(time.Duration)
}

func newLightSwitch() *lightSwitch {
	return &lightSwitch{sleep: time.Sleep}
}

func (s *lightSwitch) attach(l Lights) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = l
}

func (s *lightSwitch) SetLights(on [domain.ControllerCount]bool) error {
	s.mu.RLock()
	target := s.target
	s.mu.RUnlock()
	if target == nil {
		return domain.ErrNotConnected
	}
	return target.SetLights(on)
}

// flash lights one controller briefly.
func (s *lightSwitch) flash(controllerID int) {
	if err := s.SetLights(buzz.Single(controllerID)); err != nil {
		return
	}
	s.sleep(flashDuration)
	if err := s.SetLights([domain.ControllerCount]bool{}); err != nil {
		log.Printf("device: lights off: %v", err)
	}
}

// celebrate blinks the winner's light.
func (s *lightSwitch) celebrate(controllerID int) {
	for i := 0; i < celebrateBlinks; i++ {
		if err := s.SetLights(buzz.Single(controllerID)); err != nil {
			return
		}
		s.sleep(celebrateDelay)
		_ = s.SetLights([domain.ControllerCount]bool{})
		s.sleep(celebrateDelay)
	}
}
