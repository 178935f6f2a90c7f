package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/config"
	"github.com/spf13/cobra"
)

// NewCalibrateCmd walks the operator through pressing every button and saves
// the discovered mapping.
func NewCalibrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Map every controller button by pressing them in turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibration(cmd.Context(), *configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runCalibration(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deviceErr := make(chan error, 1)
	go func() {
		deviceErr <- rt.service.RunDevice(ctx, rt.connector, rt.retry)
	}()

	updates, unsubscribe := rt.service.Calibration().Updates()
	defer unsubscribe()
	rt.service.StartCalibration()
	defer rt.service.StopCalibration()

	keys := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case keys <- strings.ToLower(strings.TrimSpace(scanner.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "Release every button, then press each one when prompted.")
	fmt.Fprintln(out, "Type s + enter to skip a button, r to restart, q to quit.")

	prompter := &calibrationPrompter{out: out, prompted: -1}
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "calibration interrupted, nothing saved")
			return nil
		case err := <-deviceErr:
			return err
		case key := <-keys:
			switch key {
			case "s":
				err = rt.service.SkipCalibration()
			case "r":
				err = rt.service.RestartCalibration()
				prompter.reset()
			case "q":
				fmt.Fprintln(out, "calibration abandoned, nothing saved")
				return nil
			default:
				continue
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case progress, ok := <-updates:
			if !ok {
				return nil
			}
			prompter.show(progress)
			if !progress.Complete {
				continue
			}
			mapping, err := rt.service.SaveCalibration(ctx)
			if err != nil {
				return fmt.Errorf("save mapping: %w", err)
			}
			fmt.Fprintf(out, "saved mapping with %d buttons\n", len(mapping))
			return nil
		}
	}
}

// calibrationPrompter prints each step once and echoes recorded bits.
type calibrationPrompter struct {
	out      io.Writer
	prompted int
	resolved int
}

func (p *calibrationPrompter) reset() {
	p.prompted = -1
	p.resolved = 0
}

func (p *calibrationPrompter) show(progress app.CalibrationProgress) {
	if !progress.Active {
		return
	}
	if progress.Resolved > p.resolved && progress.Last != nil {
		fmt.Fprintf(p.out, "  recorded byte %d mask %#02x\n", progress.Last.ByteIndex, progress.Last.BitMask)
	}
	p.resolved = progress.Resolved
	if progress.Step != nil && progress.Step.Index != p.prompted {
		p.prompted = progress.Step.Index
		fmt.Fprintf(p.out, "[%d/%d] controller %d: press %s\n",
			progress.Step.Index+1, progress.Total, progress.Step.ControllerID+1, progress.Step.Button)
	}
}
