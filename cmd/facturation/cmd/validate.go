package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/htconfort/facturation/internal/normalize"
	"github.com/htconfort/facturation/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <invoice.json>",
	Short: "Validate an invoice without submitting it",
	Long: `Validate normalizes an invoice and runs every schema rule against it,
printing all violations at once. No network call is made.

Examples:
  facturation validate invoice.json
  facturation validate invoice.json -v`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := readInvoice(args[0])
	if err != nil {
		return err
	}

	payload := normalize.Normalize(raw)
	printVerbose("Normalized totals: HT=%s TVA=%s TTC=%s\n",
		payload.MontantHT.StringFixed(2),
		payload.MontantTVA.StringFixed(2),
		payload.MontantTTC.StringFixed(2))

	_, violations := validate.Validate(payload)

	out, _ := json.MarshalIndent(map[string]any{
		"valid":      len(violations) == 0,
		"violations": violations,
	}, "", "  ")
	fmt.Println(string(out))

	if len(violations) > 0 {
		return fmt.Errorf("invoice has %d violation(s)", len(violations))
	}
	return nil
}
