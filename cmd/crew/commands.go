package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amityadav/researchcrew/internal/core"
	appfx "github.com/amityadav/researchcrew/internal/fx"
	"github.com/amityadav/researchcrew/internal/scraper"
	"github.com/amityadav/researchcrew/internal/search"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the research crew once and print its outputs",
		Long:  `Researches a topic, writes the report in the chosen format and emails it to the recipient.`,
		Args:  cobra.NoArgs,
		RunE:  runResearch,
	}
	cmd.Flags().String("topic", "Latest AI developments in 2025", "research topic")
	cmd.Flags().String("recipient", "", "email recipient of the report")
	cmd.Flags().Int("results", core.DefaultResults, fmt.Sprintf("number of search results (%d-%d)", core.MinResults, core.MaxResults))
	cmd.Flags().String("format", core.FormatSummaryReport, "report format: Summary Report, Detailed Analysis or Executive Brief")
	cmd.Flags().String("out", "", "directory to write the research and summary markdown files to")

	for _, name := range []string{"topic", "recipient", "results", "format", "out"} {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := appfx.NewConfig()
	if err != nil {
		return err
	}
	llm, err := appfx.NewCrewModel(cfg)
	if err != nil {
		return err
	}
	researchCore := appfx.NewResearchCore(llm, appfx.NewSearchRegistry(cfg), scraper.NewScraper(), appfx.NewMailSender(cfg), cfg)

	req := core.Request{
		Topic:      viper.GetString("topic"),
		Recipient:  viper.GetString("recipient"),
		NumResults: viper.GetInt("results"),
		Format:     viper.GetString("format"),
	}

	ctx, cancel := signalContext(cfg.RunTimeout())
	defer cancel()

	start := time.Now()
	result, err := researchCore.Run(ctx, req, func(p core.Progress) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", p.Percent, p.Message)
	})
	if err != nil {
		return fmt.Errorf("❌ An error occurred: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n🔍 Web Research Results\n\n%s\n", result.Research)
	fmt.Fprintf(out, "\n📊 Content Analysis\n\n%s\n", result.Summary)
	fmt.Fprintf(out, "\n📧 Email Delivery\n\n%s\n", result.EmailStatus)
	fmt.Fprintf(out, "\n✨ Research completed successfully in %v\n", time.Since(start).Round(time.Second))

	if dir := viper.GetString("out"); dir != "" {
		if err := writeReports(dir, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "📥 Reports written to %s\n", dir)
	}
	return nil
}

func writeReports(dir string, result *core.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	files := map[string]string{
		result.ResearchFile: result.Research,
		result.SummaryFile:  result.Summary,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the internet with the configured providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appfx.NewConfig()
			if err != nil {
				return err
			}
			registry := appfx.NewSearchRegistry(cfg)

			ctx, cancel := signalContext(time.Minute)
			defer cancel()

			articles, err := registry.Search(ctx, args[0], search.MaxFormattedResults)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), search.FormatFailure(err))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), search.FormatArticles(articles))
			return nil
		},
	}
	return cmd
}

func newEmailTestCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "email-test",
		Short: "Send a test email to verify SMTP credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appfx.NewConfig()
			if err != nil {
				return err
			}
			sender := appfx.NewMailSender(cfg)

			ctx, cancel := signalContext(time.Minute)
			defer cancel()

			if err := sender.SendPlain(ctx, to, "Test Email", "Test email from Go SMTP!"); err != nil {
				return fmt.Errorf("❌ Failed to send: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Email sent!")
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// signalContext is cancelled on SIGINT/SIGTERM or after timeout
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
