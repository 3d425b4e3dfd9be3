package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/config"
	"github.com/mklimuk/i2s/sim"
)

// checkConfigs builds every configuration matching pattern on a simulated
// peripheral and returns the joined failures.
func checkConfigs(pattern string) (int, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, err
	}
	var errs []error
	for _, f := range files {
		cfg, err := config.LoadFile(f)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		drv, err := config.Open(sim.New(), cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		attrs := []any{"file", f, "mode", drv.Mode()}
		if sr, ok := drv.(i2s.SampleRater); ok {
			rate, _ := sr.SampleRate()
			attrs = append(attrs, "rate", rate)
		}
		slog.Info("configuration ok", attrs...)
		drv.Release()
	}
	return len(files), errors.Join(errs...)
}

func ConfigsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Check the sample driver configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, _ := cmd.Flags().GetString("glob")
			n, err := checkConfigs(pattern)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no configuration matches %s", pattern)
			}
			return nil
		},
	}
	cmd.Flags().String("glob", "configs/*.yaml", "configuration files to check")
	return cmd
}
