// Command tracecore drives the ingestion engine from the command line: it
// accepts one or more capture-file specs, runs them through Ingest, and
// prints the resulting conversation summary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/csssqlnet/tracecore"
	"github.com/csssqlnet/tracecore/internal/diag"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tracecore [capture-file-spec]...",
		Short: "Decode capture files into reconstructed TCP/UDP conversations",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	root.Flags().Int64("rollover-gap-ticks", 0, "tick gap after an RST before a new SYN splits the conversation (0 = default, 20s)")
	root.Flags().Int("back-count-limit", 0, "backward-scan limit for the retransmit and continuation passes (0 = default, 20)")
	root.Flags().Int("concurrency", 0, "conversations to fix up in parallel (0 = default, serial)")
	root.Flags().String("config", "", "optional config file (yaml/json/toml) supplying values for the flags above that are not set on the command line")

	return root
}

func runIngest(cmd *cobra.Command, args []string) error {
	v := viper.New()
	v.BindPFlags(cmd.Flags())

	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	opts := tracecore.Options{
		RolloverGapTicks: v.GetInt64("rollover-gap-ticks"),
		BackCountLimit:   v.GetInt("back-count-limit"),
		Concurrency:      v.GetInt("concurrency"),
		Logger:           diag.NewZerolog(),
	}

	tr := tracecore.NewTrace(0, opts)

	var failed int
	for _, spec := range args {
		if err := tr.Ingest(spec); err != nil {
			fmt.Fprintf(os.Stderr, "tracecore: %s: %v\n", spec, err)
			failed++
		}
	}

	fmt.Printf("files ingested: %d, failed: %d\n", tr.Stats.FilesIngested, tr.Stats.FilesFailed)
	fmt.Printf("frames: %d, conversations: %d\n", len(tr.Frames), len(tr.Conversations))
	for reason, count := range tr.Stats.FramesDropped {
		fmt.Printf("  dropped[%s] = %d\n", reason, count)
	}

	if failed > 0 && failed == len(args) {
		return fmt.Errorf("all %d input specs failed to ingest", failed)
	}
	return nil
}
