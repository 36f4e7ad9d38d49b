package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexconsult/case-fetcher/internal/models"
)

var (
	searchQuery   models.SearchQuery
	searchPDF     *string
	searchCaptcha *string
)

func init() {
	flags := searchCmd.Flags()
	flags.StringVarP(&searchQuery.CaseType, "type", "t", "", "Case type as listed on the portal, e.g. CRL.A.")
	flags.StringVarP(&searchQuery.CaseNumber, "number", "n", "", "Case number.")
	flags.StringVarP(&searchQuery.FilingYear, "year", "y", "", "Filing year.")
	flags.StringVar(&searchQuery.CaptchaSolution, "solution", "", "CAPTCHA solution. Prompted for when omitted.")
	searchCaptcha = flags.String("captcha-out", "captcha", "Where to save the CAPTCHA image before prompting.")
	searchPDF = flags.String("pdf", "", "Also export the result as a PDF to this path.")

	_ = searchCmd.MarkFlagRequired("type")
	_ = searchCmd.MarkFlagRequired("number")
	_ = searchCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search --type <t> --number <n> --year <y> [--pdf <out.pdf>]",
	Short: "Fetches a CAPTCHA, prompts for its solution and runs one case search.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, container, err := setup(true)
		if err != nil {
			return err
		}
		defer container.Close() //nolint:errcheck

		if searchQuery.CaptchaSolution == "" {
			challenge, err := container.Captcha.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			path, err := saveChallenge(challenge, *searchCaptcha)
			if err != nil {
				return err
			}

			solution, err := prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("CAPTCHA saved to %s. Solution: ", path))
			if err != nil {
				return err
			}
			searchQuery.CaptchaSolution = solution
		}

		outcome := container.Search.Execute(cmd.Context(), searchQuery)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return err
		}

		if !outcome.OK() {
			return fmt.Errorf("search failed: %s", outcome.Reason())
		}

		if *searchPDF != "" {
			pdf, err := container.Reports.Render(outcome.Result())
			if err != nil {
				return err
			}
			if err := os.WriteFile(*searchPDF, pdf, 0o644); err != nil {
				return fmt.Errorf("save pdf: %w", err)
			}
			log.WithField("path", *searchPDF).Info("Result exported")
		}
		return nil
	},
}

func prompt(in io.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read solution: %w", err)
	}
	return strings.TrimSpace(line), nil
}
