// Package cli provides output formatting for the glove command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one "word score" line per result, suitable for shell pipelines.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const maxWordWidth = 32

// ParseFormat returns the format named s. Unknown names are an error.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSimilar writes nearest-neighbour results to w in the given format.
// Unknown formats are written as text.
func WriteSimilar(w io.Writer, response *models.SimilarResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			if _, err := fmt.Fprintf(w, "%s %.6f\n", r.Word, r.Score); err != nil {
				return err
			}
		}
		return nil
	default:
		writeSimilarText(w, response)
		return nil
	}
}

func writeSimilarText(w io.Writer, response *models.SimilarResponse) {
	if !response.Known {
		fmt.Fprintf(w, "\n%q is not in the vocabulary\n", response.Word)
		if len(response.Suggestions) > 0 {
			fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(response.Suggestions, ", "))
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "\nNearest words to %q (%d results in %dms)\n\n", response.Word, len(response.Results), response.QueryTime)
	for _, r := range response.Results {
		fmt.Fprintf(w, "%4d. %-*s %8.4f\n", r.Rank, maxWordWidth, utils.Truncate(r.Word, maxWordWidth), r.Score)
	}
	fmt.Fprintln(w)
}

// WriteRuns writes training runs to w, newest first as given.
func WriteRuns(w io.Writer, runs []*models.TrainingRun, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if runs == nil {
			runs = []*models.TrainingRun{}
		}
		return writeJSON(w, runs)
	case OutputCompact:
		for _, r := range runs {
			if _, err := fmt.Fprintf(w, "%s %d %.6f\n", r.ID, r.Epochs, r.FinalLoss); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(runs) == 0 {
			fmt.Fprintln(w, "No training runs recorded.")
			return nil
		}
		for _, r := range runs {
			state := "running"
			if r.Finished() {
				state = "finished in " + r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
			}
			fmt.Fprintf(w, "%s  %s  epochs=%d samples=%d loss=%.6f  %s\n",
				r.ID, r.StartedAt.Format(time.RFC3339), r.Epochs, r.Samples, r.FinalLoss, state)
		}
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
