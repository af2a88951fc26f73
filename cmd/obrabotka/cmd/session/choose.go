package session

import (
	"os"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/cmd/emoji"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// NewChooseCommand creates the choose command.
func NewChooseCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "choose SESSION",
		GroupID: "workflow",
		Short:   "Confirm the role of an ambiguous value",
		Long: `Choose records the role confirmed for a pending value of an analyzed
session. The role must be one of the value's candidates. A later choice
for the same value replaces the earlier one, and --clear removes it.

A choices file maps categories to values to roles and is applied as a
whole: if any entry is rejected, nothing is saved.

  TU:
    ПС Тестовая: ТУ ПС Тестовая
  TV:
    Объект 2: ТВ Объект 2`,
		Example: `  obrabotka choose "$SESSION_ID" --category ТУ --value "ПС Тестовая" --role "ТУ ПС Тестовая"
  obrabotka choose session.json --category TU --value "ПС Тестовая" --clear
  obrabotka choose session.json --from choices.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChoose(cmd, app, args[0])
		},
	}

	cmd.Flags().String("category", "", "category: TU, TV, IV (or ТУ, ТВ, ИВ)")
	cmd.Flags().String("value", "", "original survey value")
	cmd.Flags().String("role", "", "confirmed role name")
	cmd.Flags().Bool("clear", false, "remove the choice for the value")
	cmd.Flags().String("from", "", "YAML or JSON file of choices")
	cmd.MarkFlagsMutuallyExclusive("from", "category")
	cmd.MarkFlagsMutuallyExclusive("from", "clear")
	cmd.MarkFlagsMutuallyExclusive("role", "clear")

	return cmd
}

func runChoose(cmd *cobra.Command, app application.Application, ref string) error {
	client, s, path, err := load(cmd, app, ref)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	from, _ := flags.GetString("from")
	if from != "" {
		if err := applyChoicesFile(s, from); err != nil {
			return err
		}
	} else if err := applyChoice(cmd, s); err != nil {
		return err
	}

	if err := store(app, client, s, path); err != nil {
		return err
	}
	if err := render(cmd.OutOrStdout(), app, newView(s, path), tablesFor(s)); err != nil {
		return err
	}

	if snap := s.Snapshot(); snap.Ready {
		hint(cmd, "%s All values confirmed: obrabotka submit %s", emoji.Success, path)
	} else {
		hint(cmd, "%d values still need confirmation", snap.PendingRemaining)
	}
	return nil
}

func applyChoice(cmd *cobra.Command, s *obrabotka.Session) error {
	flags := cmd.Flags()
	code, _ := flags.GetString("category")
	value, _ := flags.GetString("value")
	role, _ := flags.GetString("role")
	remove, _ := flags.GetBool("clear")

	c, err := reconcile.ParseCategory(code)
	if err != nil {
		return err
	}
	if value == "" {
		return errors.NewInputValidationError("value is required", "value")
	}

	if remove {
		removed, err := s.ClearChoice(c, value)
		if err != nil {
			return err
		}
		if !removed {
			hint(cmd, "No choice was recorded for %q", value)
		}
		return nil
	}
	if role == "" {
		return errors.NewInputValidationError("role is required unless --clear is set", "role")
	}
	return s.RecordChoice(c, value, role)
}

// applyChoicesFile records every choice in the file, in category order and
// then value order.
func applyChoicesFile(s *obrabotka.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("file", path)
		}
		return errors.WrapIO("read", path, err)
	}

	var wire map[string]map[string]string
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	byCategory := make(map[reconcile.Category]map[string]string, len(wire))
	for code, inner := range wire {
		c, err := reconcile.ParseCategory(code)
		if err != nil {
			return err
		}
		byCategory[c] = inner
	}

	for _, c := range reconcile.Categories() {
		inner := byCategory[c]
		values := make([]string, 0, len(inner))
		for v := range inner {
			values = append(values, v)
		}
		slices.Sort(values)
		for _, v := range values {
			if err := s.RecordChoice(c, v, inner[v]); err != nil {
				return err
			}
		}
	}
	return nil
}
