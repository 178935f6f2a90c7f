package domain

import (
	"fmt"
	"math/bits"
)

// Validate checks that every entry targets a real controller and button, uses a
// single-bit mask, and that no (controller, button) pair appears twice.
// Partial mappings are allowed; missing buttons decode as unpressed.
func (m ButtonMapping) Validate() error {
	if len(m) > ControllerCount*len(Buttons) {
		return fmt.Errorf("%w: %d entries", ErrInvalidMapping, len(m))
	}
	type key struct {
		controller int
		button     Button
	}
	seen := make(map[key]struct{}, len(m))
	for _, e := range m {
		if e.ControllerID < 0 || e.ControllerID >= ControllerCount {
			return fmt.Errorf("%w: controller %d", ErrInvalidMapping, e.ControllerID)
		}
		if !e.Button.Valid() {
			return fmt.Errorf("%w: button %q", ErrInvalidMapping, e.Button)
		}
		if e.ByteIndex < 0 {
			return fmt.Errorf("%w: byte index %d", ErrInvalidMapping, e.ByteIndex)
		}
		if bits.OnesCount8(e.BitMask) != 1 {
			return fmt.Errorf("%w: bit mask %#02x", ErrInvalidMapping, e.BitMask)
		}
		k := key{e.ControllerID, e.Button}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate entry for controller %d %s", ErrInvalidMapping, e.ControllerID, e.Button)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Validate checks question shape before a quiz is saved.
func (q Quiz) Validate() error {
	if q.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if question.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuiz, i+1)
		}
		if question.CorrectIndex < 0 || question.CorrectIndex > 3 {
			return fmt.Errorf("%w: question %d correct index %d", ErrInvalidQuiz, i+1, question.CorrectIndex)
		}
		if question.TimeLimit <= 0 {
			return fmt.Errorf("%w: question %d time limit must be positive", ErrInvalidQuiz, i+1)
		}
	}
	return nil
}
