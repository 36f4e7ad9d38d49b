package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexconsult/case-fetcher/internal/models"
)

var captchaOut *string

func init() {
	captchaOut = captchaCmd.Flags().StringP("out", "o", "captcha", "Where to save the image. The extension follows the image type when omitted.")
	rootCmd.AddCommand(captchaCmd)
}

var captchaCmd = &cobra.Command{
	Use:   "captcha [--out <path>]",
	Short: "Fetches the portal's current CAPTCHA and saves it to a file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, container, err := setup(true)
		if err != nil {
			return err
		}
		defer container.Close() //nolint:errcheck

		challenge, err := container.Captcha.Acquire(cmd.Context())
		if err != nil {
			return err
		}

		path, err := saveChallenge(challenge, *captchaOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func saveChallenge(challenge *models.CaptchaChallenge, path string) (string, error) {
	raw, err := challenge.Bytes()
	if err != nil {
		return "", fmt.Errorf("decode captcha: %w", err)
	}
	if !strings.Contains(path[strings.LastIndex(path, "/")+1:], ".") {
		path += challenge.Extension()
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("save captcha: %w", err)
	}
	return path, nil
}
