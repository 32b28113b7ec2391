package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/wizard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewWizardCmd creates the `wizard` command.
func NewWizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard <definition>",
		Short: "Run a multi-page form wizard from a YAML definition",
		Long: `Submits each page of the wizard in order using the answers file, which maps
page names to field values. Stops at the first page that fails validation or
is rejected by the server.`,
		Example: `seqrkit wizard upload.yml --answers answers.yml`,
		Args:    cobra.ExactArgs(1),
		RunE:    runWizard,
	}

	cmd.Flags().String("answers", "", "YAML file of field values keyed by page name")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func runWizard(cmd *cobra.Command, args []string) error {
	def, err := wizard.LoadDefinition(args[0])
	if err != nil {
		return err
	}

	answersPath, _ := cmd.Flags().GetString("answers")
	answers, err := loadAnswers(answersPath)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.requireAPI(); err != nil {
		return err
	}
	defer s.Close()

	var final wizard.Values
	w, err := wizard.New(def.Pages(), s.client, wizard.OnComplete(func(values wizard.Values) {
		final = values
	}))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for !w.Done() {
		page := w.Current()
		values := w.InitialValues()
		for k, v := range answers[page.Name] {
			values[k] = v
		}

		if err := w.Submit(cmd.Context(), values); err != nil {
			fmt.Fprintf(out, "Page %d/%d %s failed\n", w.Page()+1, w.PageCount(), page.Name)
			for _, msg := range w.SubmitErrors() {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			return err
		}
		fmt.Fprintf(out, "Page %d/%d %s submitted\n", w.Page(), w.PageCount(), page.Name)
	}

	fmt.Fprintf(out, "Wizard %s complete\n", def.Name)
	return printJSON(cmd, final)
}

func loadAnswers(path string) (map[string]wizard.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read answers file").WithDetail("path", path)
	}
	var answers map[string]wizard.Values
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to parse answers file").WithDetail("path", path)
	}
	return answers, nil
}
