package sink

import (
	"fmt"
	"os"

	"github.com/kb6px/sdrpipe/internal/psd"
)

// CSV overwrites a single file with one PSD spectrum per cycle, per the
// Output format: header "freq_hz,psd_<unit>", one line per retained
// bin with a 6-decimal frequency and a 12-significant-figure scaled
// value.
type CSV struct {
	Path  string
	Scale psd.Scale
}

func NewCSV(path string, scale psd.Scale) *CSV {
	return &CSV{Path: path, Scale: scale}
}

// Write overwrites Path with one complete spectrum.
func (c *CSV) Write(result psd.Result) error {
	f, err := os.Create(c.Path)
	if err != nil {
		return fmt.Errorf("sink: csv create %s: %w", c.Path, err)
	}
	defer f.Close()

	unit := c.Scale.String()
	if _, err := fmt.Fprintf(f, "freq_hz,psd_%s\n", unit); err != nil {
		return fmt.Errorf("sink: csv header write: %w", err)
	}
	for i, freq := range result.FreqHz {
		if _, err := fmt.Fprintf(f, "%.6f,%.11e\n", freq, result.Power[i]); err != nil {
			return fmt.Errorf("sink: csv row write: %w", err)
		}
	}
	return nil
}
