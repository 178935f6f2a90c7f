package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/buzz"
	"buzz-quiz-service/internal/config"
	"buzz-quiz-service/internal/domain"
)

func TestCalibrationPrompterPrintsEachStepOnce(t *testing.T) {
	var out bytes.Buffer
	p := &calibrationPrompter{out: &out, prompted: -1}

	first, _ := buzz.StepAt(0)
	p.show(app.CalibrationProgress{Active: true, Step: &first, Total: buzz.StepCount})
	p.show(app.CalibrationProgress{Active: true, Step: &first, Total: buzz.StepCount})

	second, _ := buzz.StepAt(1)
	p.show(app.CalibrationProgress{
		Active:   true,
		Step:     &second,
		Resolved: 1,
		Total:    buzz.StepCount,
		Last:     &domain.MappingEntry{ControllerID: 0, Button: domain.ButtonRed, ByteIndex: 2, BitMask: 0x01},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected two prompts and one record line, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "[1/20] controller 1: press") || !strings.Contains(lines[1], "byte 2") {
		t.Fatalf("unexpected output %q", out.String())
	}

	p.reset()
	out.Reset()
	p.show(app.CalibrationProgress{Active: true, Step: &first, Total: buzz.StepCount})
	if !strings.HasPrefix(out.String(), "[1/20]") {
		t.Fatalf("expected the first step prompted again after reset, got %q", out.String())
	}

	out.Reset()
	p.show(app.CalibrationProgress{Active: false})
	if out.Len() != 0 {
		t.Fatalf("expected nothing printed for an inactive wizard")
	}
}

func TestBuildRuntimeUsesSQLiteWhenConfigured(t *testing.T) {
	ctx := context.Background()
	var cfg config.Config
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "buzz.db")

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	saved, err := rt.service.SaveQuiz(ctx, domain.Quiz{
		Title: "Local",
		Questions: []domain.QuizQuestion{
			{Text: "One?", Options: [4]string{"a", "b", "c", "d"}, CorrectIndex: 1, TimeLimit: 10},
		},
	})
	if err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	rt.Close()

	rt, err = buildRuntime(ctx, cfg)
	if err != nil {
		t.Fatalf("rebuild runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.service.InitQuiz(ctx, saved.ID, 2); err != nil {
		t.Fatalf("expected the quiz to survive a restart: %v", err)
	}
	if rt.retry != defaultRetry {
		t.Fatalf("unexpected retry %v", rt.retry)
	}
}
