package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/domain"
	"buzz-quiz-service/internal/infra/memory"
)

func TestLibraryBuiltInsAreReadOnly(t *testing.T) {
	ctx := context.Background()
	library := app.NewQuizLibrary(memory.NewQuizStore(), app.BuiltInQuizzes())

	list, err := library.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(app.BuiltInQuizzes()) || !list[0].BuiltIn {
		t.Fatalf("expected only built-ins, got %+v", list)
	}

	if err := library.Delete(ctx, "builtin-general"); !errors.Is(err, domain.ErrBuiltInQuiz) {
		t.Fatalf("expected built-in delete rejected, got %v", err)
	}
	edited := list[0]
	edited.Title = "Mine now"
	if _, err := library.Save(ctx, edited); !errors.Is(err, domain.ErrBuiltInQuiz) {
		t.Fatalf("expected built-in edit rejected, got %v", err)
	}
}

func TestLibrarySaveAssignsIDsAndValidates(t *testing.T) {
	ctx := context.Background()
	library := app.NewQuizLibrary(memory.NewQuizStore(), app.BuiltInQuizzes())

	quiz := domain.Quiz{
		Title: "Capitals",
		Questions: []domain.QuizQuestion{
			{Text: "Capital of France?", Options: [4]string{"Paris", "Rome", "Oslo", "Bern"}, CorrectIndex: 0, TimeLimit: 15},
			{Text: "Capital of Italy?", Options: [4]string{"Paris", "Rome", "Oslo", "Bern"}, CorrectIndex: 1, TimeLimit: 15},
		},
	}
	saved, err := library.Save(ctx, quiz)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.BuiltIn || saved.CreatedAt.IsZero() {
		t.Fatalf("unexpected saved quiz %+v", saved)
	}
	if !strings.HasPrefix(saved.Questions[1].ID, saved.ID) {
		t.Fatalf("expected question ids derived from quiz id, got %q", saved.Questions[1].ID)
	}

	loaded, err := library.LoadQuiz(ctx, saved.ID)
	if err != nil || loaded.Title != "Capitals" {
		t.Fatalf("expected saved quiz loadable, got %+v err=%v", loaded, err)
	}

	bad := quiz
	bad.Questions = []domain.QuizQuestion{{Text: "Broken", CorrectIndex: 4, TimeLimit: 10}}
	if _, err := library.Save(ctx, bad); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := library.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := library.LoadQuiz(ctx, saved.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz gone, got %v", err)
	}
}

func TestBuiltInQuizzesAreValid(t *testing.T) {
	for _, q := range app.BuiltInQuizzes() {
		if err := q.Validate(); err != nil {
			t.Fatalf("built-in %s invalid: %v", q.ID, err)
		}
	}
}
