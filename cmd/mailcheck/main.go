package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/janzheng/mailcheck/internal/config"
	"github.com/janzheng/mailcheck/internal/core"
	"github.com/janzheng/mailcheck/internal/factory"
	"github.com/janzheng/mailcheck/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagAPIKey  string
	flagExtra   string
	flagFile    string
	flagAllow   []string
	flagBlock   []string
	flagJSON    bool
	flagVerbose bool

	rootCmd = &cobra.Command{
		Use:   "mailcheck",
		Short: "Check whether an email address belongs to a real person",
	}
)

func init() {
	checkCmd := &cobra.Command{
		Use:   "check [email...]",
		Short: "Run the full check pipeline against one or more addresses",
		Args:  cobra.ArbitraryArgs,
		RunE:  runCheck,
	}
	checkCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Groq API key (falls back to configuration)")
	checkCmd.Flags().StringVarP(&flagFile, "file", "f", "", "file with one address per line")
	checkCmd.Flags().StringVar(&flagExtra, "extra", "", "extra instructions passed to the assessors")
	checkCmd.Flags().StringSliceVar(&flagAllow, "allow", nil, "allowlist tokens (domain, substring or /regex/)")
	checkCmd.Flags().StringSliceVar(&flagBlock, "block", nil, "blocklist tokens (domain, substring or /regex/)")
	checkCmd.Flags().BoolVar(&flagJSON, "json", false, "print full results as JSON")
	checkCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(checkCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	cfg = applyFlagOverrides(cfg)
	logger, err := logging.InitConsoleLogger(flagVerbose, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pf := factory.NewPipelineFactory(cfg, logger)
	pipeline, err := pf.CreatePipeline(pf.CreateChatClient())
	if err != nil {
		return err
	}
	checker := core.NewCheckerService(pipeline, nil, logger, false, 0)

	apiKey := cfg.GetString("groq.api_key")
	allow := cfg.GetStringSlice("check.allowlist")
	block := cfg.GetStringSlice("check.blocklist")
	extra := cfg.GetString("check.extra_instructions")

	emails := args
	if flagFile != "" {
		fromFile, err := readEmailFile(flagFile)
		if err != nil {
			return err
		}
		emails = append(emails, fromFile...)
	}
	if len(emails) == 0 {
		return errors.New("no addresses given, pass them as arguments or via --file")
	}

	results := make([]*core.PipelineResult, 0, len(emails))
	for _, email := range emails {
		if cmd.Context().Err() != nil {
			break
		}
		result := checker.Check(cmd.Context(), core.AssessRequest{
			APIKey:            apiKey,
			Email:             email,
			ExtraInstructions: extra,
			Allowlist:         allow,
			Blocklist:         block,
		})
		results = append(results, result)
		if !flagJSON {
			printResult(result)
		}
	}

	if flagJSON {
		encoded, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	}

	logger.Debug("Check finished", zap.Int("count", len(results)))
	return nil
}

// applyFlagOverrides layers explicit command line flags over the file and
// environment driven configuration.
func applyFlagOverrides(cfg *config.Config) *config.Config {
	v := cfg.GetViper()
	if flagAPIKey != "" {
		v.Set("groq.api_key", flagAPIKey)
	}
	if flagExtra != "" {
		v.Set("check.extra_instructions", flagExtra)
	}
	if len(flagAllow) > 0 {
		v.Set("check.allowlist", flagAllow)
	}
	if len(flagBlock) > 0 {
		v.Set("check.blocklist", flagBlock)
	}
	return config.NewFromViper(v)
}

func readEmailFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read address file: %w", err)
	}
	var emails []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails = append(emails, line)
	}
	return emails, nil
}

func printResult(result *core.PipelineResult) {
	fmt.Printf("%s\t%s\t%s\n", result.Email, result.Status, result.Message)
	for _, line := range result.Fields.Strs("bg_assessor_lines") {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println()
}
