package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feddict/feddict/internal/admin"
	"github.com/feddict/feddict/internal/model"
)

// termFlags are the editable fields of add and update.
type termFlags struct {
	term       string
	definition string
	category   string
}

func (f *termFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.term, "term", "t", "", "term name")
	cmd.Flags().StringVarP(&f.definition, "definition", "d", "", "definition (at least 10 characters)")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category")
}

func (f *termFlags) input() model.TermInput {
	return model.TermInput{Term: f.term, Definition: f.definition, Category: f.category}
}

func (a *app) addCmd() *cobra.Command {
	var flags termFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form := admin.NewForm()
			form.Load("", flags.input())
			t, err := a.adminService().Save(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.printf("Created term %s (id %s)\n", t.Term, t.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var flags termFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the fields of a term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := admin.NewForm()
			form.Load(model.TermID(args[0]), flags.input())
			t, err := a.adminService().Save(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.printf("Updated term %s (id %s)\n", t.Term, t.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.TermID(args[0])
			if err := a.adminService().Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.printf("Deleted term %s\n", id)
			return nil
		},
	}
}

func (a *app) bulkDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "bulk-delete <id>...",
		Short: "Delete several terms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := admin.NewSelection()
			for _, id := range args {
				sel.Add(model.TermID(id))
			}
			var conf admin.Confirmation
			if err := conf.RequestSelected(sel); err != nil {
				return err
			}

			if !yes {
				answer, err := a.prompt(bufio.NewReader(cmd.InOrStdin()), fmt.Sprintf("Delete %d terms? [y/N]: ", sel.Len()))
				if err != nil {
					return err
				}
				if ans := strings.ToLower(strings.TrimSpace(answer)); ans != "y" && ans != "yes" {
					conf.Cancel()
					sel.Clear()
					a.printf("Cancelled\n")
					return nil
				}
			}
			if err := conf.ConfirmSelected(); err != nil {
				return err
			}

			res, err := a.adminService().BulkDelete(cmd.Context(), &conf, sel)
			if err != nil {
				return err
			}
			a.printf("Deleted %d terms\n", res.Count)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) deleteAllCmd() *cobra.Command {
	var phrase, password string
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every term",
		Long: fmt.Sprintf(`Deletes every term in the glossary. Type %q to confirm and
re-enter the admin password. Both are prompted for when not given as flags.`, admin.DeleteAllPhrase),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := a.adminService()
			if !a.session.Authenticated() {
				return admin.ErrNotAuthenticated
			}

			var conf admin.Confirmation
			conf.RequestAll()

			r := bufio.NewReader(cmd.InOrStdin())
			var err error
			if phrase == "" {
				if phrase, err = a.prompt(r, fmt.Sprintf("Type %q to confirm: ", admin.DeleteAllPhrase)); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompt(r, "Password: "); err != nil {
					return err
				}
			}
			if err := conf.ConfirmAll(phrase, password); err != nil {
				return err
			}

			res, err := svc.DeleteAll(cmd.Context(), &conf, nil)
			if err != nil {
				return err
			}
			a.printf("Deleted all terms (%d)\n", res.Count)
			return nil
		},
	}
	cmd.Flags().StringVar(&phrase, "confirm", "", "confirmation phrase")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload terms from a .csv or .json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := admin.CheckUploadFile(name); err != nil {
				return err
			}
			f, err := os.Open(name)
			if err != nil {
				return fmt.Errorf("opening upload: %w", err)
			}
			defer func() { _ = f.Close() }()

			res, err := a.adminService().Upload(cmd.Context(), name, f)
			if err != nil {
				return err
			}
			if res.Message != "" {
				a.printf("%s\n", res.Message)
			}
			a.printf("Processed %d, succeeded %d, failed %d\n", res.Processed, res.Succeeded, res.Failed)
			for _, e := range res.Errors {
				a.printf("  %s\n", e)
			}
			return nil
		},
	}
}

func (a *app) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.adminService().Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = fmt.Sprintf("Removed %d duplicates", res.Count)
			}
			a.printf("%s\n", msg)
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show backend storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.adminService().Stats(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Terms:   %d\n", st.DocumentCount)
			a.printf("Storage: %.2f MB of %.2f MB (%.1f%%)\n", st.SizeMB, st.StorageLimitMB, st.UsagePercentage)
			return nil
		},
	}
}
