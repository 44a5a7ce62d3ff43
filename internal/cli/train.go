package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/flux/internal/ingest"
	"github.com/terraincognita07/flux/internal/models"
	"github.com/terraincognita07/flux/internal/services"
)

const DefaultParamsPath = "model_params.json"

type TrainOptions struct {
	Input     string
	Output    string
	Format    string
	ModelType string
	Quiet     bool
}

// RunTrainCommand trains a model from an export file and writes its
// parameters to opts.Output, printing diagnostics unless opts.Quiet is set.
func RunTrainCommand(opts TrainOptions, stdout io.Writer, logger logrus.FieldLogger) error {
	if opts.Input == "" {
		return errors.New("input file is required")
	}
	if opts.Output == "" {
		opts.Output = DefaultParamsPath
	}
	if opts.Format == "" {
		opts.Format = ingest.FormatAuto
	}
	if opts.ModelType == "" {
		opts.ModelType = services.ModelTypeAuto
	}

	say := func(format string, args ...any) {
		if !opts.Quiet {
			fmt.Fprintf(stdout, format+"\n", args...)
		}
	}

	if _, err := os.Stat(opts.Input); err != nil {
		return fmt.Errorf("input file not found: %s", opts.Input)
	}
	predictor, err := services.NewCyclePredictor(opts.ModelType)
	if err != nil {
		return err
	}

	raw, err := ingest.LoadFile(opts.Input)
	if err != nil {
		return err
	}
	if opts.Format == ingest.FormatAuto {
		opts.Format = ingest.DetectFormat(raw)
		say("Detected input format: %s", opts.Format)
	}

	say("Loading data from %s", opts.Input)
	document, err := ingest.NewNormalizer(logger).Parse(raw, opts.Format)
	if err != nil {
		return err
	}
	say("Found %d cycles", len(document.Cycles))
	if len(document.Logs) > 0 {
		say("Found %d daily log entries", len(document.Logs))
	}

	if len(document.Cycles) < 3 {
		fmt.Fprintln(stdout, "Need at least 3 cycles for meaningful predictions.")
		fmt.Fprintln(stdout, "Please add more cycle data and try again.")
		return fmt.Errorf("%w: got %d", services.ErrInsufficientData, len(document.Cycles))
	}

	features, err := services.BuildCycleFeatures(document.Cycles)
	if err != nil {
		return err
	}
	say("")
	say("Cycle statistics:")
	say("  Valid cycles: %d", features.CycleCount)
	say("  Average length: %.1f days", features.MeanLength)
	say("  Std deviation: %.1f days", features.StdLength)
	say("  Range: %d-%d days", features.MinLength, features.MaxLength)
	say("  Regularity score: %.2f", features.RegularityScore)

	say("")
	say("Training model (type: %s)...", opts.ModelType)
	if err := predictor.Fit(document.Cycles); err != nil {
		return err
	}
	params, err := predictor.ExportParams()
	if err != nil {
		return err
	}

	printPrediction(say, params.Prediction)

	say("")
	say("Saving model to %s", opts.Output)
	if err := services.WriteParamsFile(opts.Output, params); err != nil {
		return err
	}
	say("")
	say("Done! Upload %s with PUT /api/v1/model or keep it for offline use.", opts.Output)
	return nil
}

func printPrediction(say func(string, ...any), prediction models.Prediction) {
	say("")
	say("Prediction:")
	if prediction.NextPeriodDate != nil {
		say("  Next period: %s", models.FormatDate(*prediction.NextPeriodDate))
	} else {
		say("  Next period: unknown")
	}
	say("  Expected cycle length: %d days", prediction.ExpectedCycleLength)
	say("  Confidence: %.0f%%", prediction.Confidence*100)
	if prediction.FertileWindowStart != nil && prediction.FertileWindowEnd != nil {
		say("  Fertile window: %s to %s",
			models.FormatDate(*prediction.FertileWindowStart),
			models.FormatDate(*prediction.FertileWindowEnd),
		)
	}
}
