package domain

import (
	"errors"
	"testing"
)

func TestButtonMappingValidate(t *testing.T) {
	good := ButtonMapping{
		{ControllerID: 0, Button: ButtonRed, ByteIndex: 2, BitMask: 0x01},
		{ControllerID: 3, Button: ButtonYellow, ByteIndex: 4, BitMask: 0x80},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid mapping, got %v", err)
	}

	cases := map[string]ButtonMapping{
		"duplicate":   {good[0], good[0]},
		"two bits":    {{ControllerID: 0, Button: ButtonRed, ByteIndex: 2, BitMask: 0x03}},
		"zero mask":   {{ControllerID: 0, Button: ButtonRed, ByteIndex: 2, BitMask: 0}},
		"controller":  {{ControllerID: 4, Button: ButtonRed, ByteIndex: 2, BitMask: 0x01}},
		"button":      {{ControllerID: 0, Button: "purple", ByteIndex: 2, BitMask: 0x01}},
		"negative ix": {{ControllerID: 0, Button: ButtonRed, ByteIndex: -1, BitMask: 0x01}},
	}
	for name, m := range cases {
		if err := m.Validate(); !errors.Is(err, ErrInvalidMapping) {
			t.Fatalf("%s: expected ErrInvalidMapping, got %v", name, err)
		}
	}
}

func TestQuizValidate(t *testing.T) {
	quiz := Quiz{
		Title: "Capitals",
		Questions: []QuizQuestion{
			{ID: "q1", Text: "Capital of France?", Options: [4]string{"Paris", "Rome", "Oslo", "Bern"}, CorrectIndex: 0, TimeLimit: 20},
		},
	}
	if err := quiz.Validate(); err != nil {
		t.Fatalf("expected valid quiz, got %v", err)
	}

	quiz.Questions[0].CorrectIndex = 4
	if err := quiz.Validate(); !errors.Is(err, ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}
}
