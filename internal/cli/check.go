package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/pairmerge/pkg/merger"
)

var checkInput string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and input file",
	Long: `Validate the configuration and scan the input file without starting the
mergeusers CLI. Reports how many pairs a run would send and which would be
skipped, applying the same validation and duplicate rules as run.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkInput, "input", "i", "", "pairs file (overrides input.path)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("input") {
		cfg.Input.Path = checkInput
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	out := cmd.OutOrStdout()
	screener := merger.NewScreener()
	skipped := map[merger.Reason]int{}

	for {
		c, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if _, reason := screener.Screen(c); reason != "" {
			skipped[reason]++
			fmt.Fprintf(out, "record %d: skipped (%s): %q -> %q\n", c.Record, reason, c.FromID, c.ToID)
		}
	}

	fmt.Fprintf(out, "Command: %s\n", strings.Join(cfg.SessionSpec().Argv(), " "))
	fmt.Fprintf(out, "Input: %s\n", cfg.Input.Path)
	fmt.Fprintf(out, "Accepted: %d\n", screener.Seen())
	fmt.Fprintf(out, "Skipped: %d (malformed: %d, self-merge: %d, duplicate: %d)\n",
		skipped[merger.ReasonMalformed]+skipped[merger.ReasonSelfMerge]+skipped[merger.ReasonDuplicate],
		skipped[merger.ReasonMalformed], skipped[merger.ReasonSelfMerge], skipped[merger.ReasonDuplicate])

	return nil
}
