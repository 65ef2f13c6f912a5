package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/tabwriter"

	"github.com/dookofcrds/PenFramework/internal/config"
	"github.com/dookofcrds/PenFramework/internal/dradis"
	"github.com/dookofcrds/PenFramework/internal/modules"
	"github.com/dookofcrds/PenFramework/internal/modules/common"
	"github.com/dookofcrds/PenFramework/internal/utils"
	"github.com/dookofcrds/PenFramework/pkg/reporting"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the supported tools and whether they are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p := utils.NewPalette(cfg.Color)

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TOOL\tBINARY\tREPORT\tSTATUS")
		for _, m := range modules.All() {
			binary := common.Binary(cfg.ToolOptionsFor(m.Name()), m.Binary())
			status := p.OK.Sprint("installed")
			if path, err := exec.LookPath(binary); err != nil {
				status = p.Fail.Sprint("not found")
			} else {
				binary = path
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Name(), binary, modules.ReportFileName(m.Name()), status)
		}
		return tw.Flush()
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Print the aggregated document of the report directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		doc, err := reporting.NewAggregator(modules.ReportOrder()).Aggregate(cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, doc)
		if doc != "" && !strings.HasSuffix(doc, "\n") {
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Aggregate the report directory and upload it without scanning",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := config.ValidateUpload(cfg.Upload); err != nil {
			return err
		}
		log := newLogger(cfg)

		doc, err := reporting.NewAggregator(modules.ReportOrder()).Aggregate(cfg.OutputDir)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		client := dradis.NewClient(cfg.Upload, log)
		if err := client.Upload(ctx, doc); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, utils.NewPalette(cfg.Color).OK.Sprintf("Uploaded %d bytes to %s", len(doc), client.Endpoint()))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(os.Stdout, "# loaded from %s\n", path)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}
