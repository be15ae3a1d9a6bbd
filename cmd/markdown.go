package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/htmlmd"
	"github.com/luminnexus/alchemy/internal/scraper"
	"github.com/luminnexus/alchemy/internal/validate"
)

var markdownCmd = &cobra.Command{
	Use:   "markdown [file|url|-]",
	Short: "Converts HTML from a file, URL or stdin to Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := ""
		if len(args) == 1 {
			source = args[0]
		}

		cfg, err := conversionConfig()
		if err != nil {
			return err
		}
		if err := applyConversionFlags(cmd, &cfg); err != nil {
			return err
		}

		selector, _ := cmd.Flags().GetString("selector")
		engineName, _ := cmd.Flags().GetString("engine")
		mainOnly, _ := cmd.Flags().GetBool("main")
		check, _ := cmd.Flags().GetBool("validate")

		markup, err := loadMarkup(cmd, source, mainOnly)
		if err != nil {
			return err
		}

		engine, err := htmlmd.NewEngine(engineName, cfg, htmlmd.WithLogger(logger))
		if err != nil {
			return err
		}
		markdown, err := engine.ConvertString(markup, selector)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), markdown)

		if check {
			res := validate.Markdown(source, markup, markdown)
			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "validation: passed=%t score=%.2f %s\n", res.Passed, res.Score, res.Feedback)
			for _, issue := range res.Issues {
				fmt.Fprintf(out, "  - issue: %s\n", issue)
			}
		}
		return nil
	},
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// loadMarkup reads source, fetching it when it is a URL. mainOnly narrows
// the document to its main content element.
func loadMarkup(cmd *cobra.Command, source string, mainOnly bool) (string, error) {
	if !isURL(source) {
		markup, err := readInput(cmd, source)
		if err != nil || !mainOnly {
			return markup, err
		}
		doc, err := html.Parse(strings.NewReader(markup))
		if err != nil {
			return "", fmt.Errorf("failed to parse html: %w", err)
		}
		return scraper.MainContentHTML(doc)
	}

	fetchCfg, err := fetchConfig()
	if err != nil {
		return "", err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	var stop func(bool)
	if verbose {
		stop = scraper.StartSpinner(cmd.ErrOrStderr(), "Fetching "+source)
	}
	page, err := scraper.New(fetchCfg).Fetch(cmd.Context(), source)
	if stop != nil {
		stop(err == nil)
	}
	if err != nil {
		return "", err
	}
	if verbose {
		scraper.WriteSummary(cmd.ErrOrStderr(), page)
	}

	if mainOnly {
		return scraper.MainContentHTML(page.Document)
	}
	return page.HTML, nil
}

func applyConversionFlags(cmd *cobra.Command, cfg *htmlmd.Config) error {
	flags := cmd.Flags()
	if flags.Changed("heading-style") {
		v, _ := flags.GetString("heading-style")
		cfg.HeadingStyle = htmlmd.HeadingStyle(v)
	}
	if flags.Changed("link-style") {
		v, _ := flags.GetString("link-style")
		cfg.LinkStyle = htmlmd.LinkStyle(v)
	}
	if flags.Changed("code-style") {
		v, _ := flags.GetString("code-style")
		cfg.CodeBlockStyle = htmlmd.CodeBlockStyle(v)
	}
	if flags.Changed("bullet") {
		cfg.BulletMarker, _ = flags.GetString("bullet")
	}
	if flags.Changed("fence") {
		cfg.FenceChar, _ = flags.GetString("fence")
	}
	if flags.Changed("emphasis") {
		cfg.EmphasisMarker, _ = flags.GetString("emphasis")
	}
	if v, _ := flags.GetBool("no-structure"); v {
		cfg.PreserveStructure = false
	}
	if v, _ := flags.GetBool("no-tables"); v {
		cfg.PreserveTables = false
	}
	if v, _ := flags.GetBool("no-links"); v {
		cfg.PreserveLinks = false
	}
	return cfg.Validate()
}

func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("heading-style", "", "Heading style: atx or setext")
	cmd.Flags().String("link-style", "", "Link style: inline or reference")
	cmd.Flags().String("code-style", "", "Code block style: fenced or indented")
	cmd.Flags().String("bullet", "", "Bullet marker for unordered lists")
	cmd.Flags().String("fence", "", "Fence character for code blocks")
	cmd.Flags().String("emphasis", "", "Emphasis marker")
	cmd.Flags().Bool("no-structure", false, "Skip headings, lists, tables, code blocks, quotes and rules")
	cmd.Flags().Bool("no-tables", false, "Leave tables as plain text")
	cmd.Flags().Bool("no-links", false, "Leave links as plain text")
}

func init() {
	rootCmd.AddCommand(markdownCmd)
	addConversionFlags(markdownCmd)
	markdownCmd.Flags().StringP("selector", "s", "", "CSS selector of the element to convert")
	markdownCmd.Flags().StringP("engine", "e", htmlmd.EnginePasses, "Conversion engine: passes or library")
	markdownCmd.Flags().Bool("main", false, "Convert only the detected main content")
	markdownCmd.Flags().Bool("validate", false, "Print a fidelity report to stderr")
}
