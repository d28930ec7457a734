package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahmedraza1/Clipify/internal/config"
	"github.com/mahmedraza1/Clipify/internal/logging"
	"github.com/mahmedraza1/Clipify/internal/pipeline"
	"github.com/mahmedraza1/Clipify/internal/usecase"
)

func run(cmd *cobra.Command, source string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	res, err := pipeline.Run(ctx, cfg, log, source)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case res.Degraded():
		fmt.Fprintf(out, "clip ready (captions missing): %s\n", res.Manifest.Clip)
	case res.Manifest.CaptionedClip != "":
		fmt.Fprintf(out, "clip ready: %s\n", res.Manifest.CaptionedClip)
	default:
		fmt.Fprintf(out, "clip ready: %s\n", res.Manifest.Clip)
	}
	return nil
}

func runStatus(cmd *cobra.Command, source string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	st, err := pipeline.Status(context.Background(), cfg, source)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(usecase.StageOrder()))
	recorded := map[string]int{}
	for i, rec := range st.Stages {
		recorded[rec.Stage] = i
	}
	for _, stage := range usecase.StageOrder() {
		i, ok := recorded[stage]
		if !ok {
			rows = append(rows, []string{stage, "pending", "", ""})
			continue
		}
		rec := st.Stages[i]
		rows = append(rows, []string{
			rec.Stage,
			string(rec.Status),
			rec.Detail,
			rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s (%s)\n", st.Run.ID, st.Run.Source)
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Status", "Detail", "Updated"},
		rows,
		isTerminal(os.Stdout),
	))
	return nil
}
