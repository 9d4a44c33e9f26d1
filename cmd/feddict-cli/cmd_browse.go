package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/tui"
)

var _ tui.Browser = (*browse.Controller)(nil)

// queryFlags are the listing filters shared by browse and list.
type queryFlags struct {
	search   string
	category string
	sort     string
	order    string
	page     int
	perPage  int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "search text")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category filter")
	cmd.Flags().StringVar(&f.sort, "sort", model.SortByTerm, "sort field: "+strings.Join(model.ValidSortFields(), ", "))
	cmd.Flags().StringVar(&f.order, "order", model.SortAsc, "sort order: asc or desc")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", browse.DefaultPerPage, "terms per page")
}

func (f *queryFlags) query() (browse.Query, error) {
	if !model.IsValidSortField(f.sort) {
		return browse.Query{}, model.NewValidationError(browse.ParamSort,
			fmt.Sprintf("Sort field must be one of: %s", strings.Join(model.ValidSortFields(), ", ")))
	}
	if f.order != model.SortAsc && f.order != model.SortDesc {
		return browse.Query{}, model.NewValidationError(browse.ParamOrder, "Sort order must be asc or desc")
	}
	q := browse.DefaultQuery().
		WithSearch(f.search).
		WithCategory(f.category).
		WithSort(f.sort).
		WithOrder(f.order).
		WithPage(f.page)
	return q, nil
}

func (a *app) browseCmd() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the glossary interactively",
		Long: `Opens the interactive glossary browser. Type "/" to search,
use the arrow keys to page and "q" to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := flags.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			categories, err := a.api.Categories(ctx)
			if err != nil {
				a.logger.Warn("failed to load categories", "error", err)
			}

			feed := tui.NewFeed()
			ctrl := browse.NewController(a.api, browse.Options{
				Initial:  q,
				PerPage:  flags.perPage,
				OnChange: feed.Push,
				Logger:   a.logger,
			})
			defer ctrl.Close()

			m := tui.New(ctrl, feed, ctrl.Snapshot(), categories)
			ctrl.Start()

			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running browser: %w", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := flags.query()
			if err != nil {
				return err
			}
			res, err := a.api.ListTerms(cmd.Context(), q.Params(flags.perPage))
			if err != nil {
				return err
			}
			if res.Pages > 0 && q.Page > res.Pages {
				return browse.ValidateJump(q.Page, res.Pages)
			}

			if len(res.Items) == 0 {
				a.printf("No terms found.\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTERM\tCATEGORY\tDEFINITION")
			for _, t := range res.Items {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Term, t.Category, oneLine(t.Definition, 60))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			a.printf("\n%s (%d terms)\n", browse.PageLabel(res.Page, res.Pages), res.Total)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the glossary categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.api.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cats {
				a.printf("%s\n", c)
			}
			return nil
		},
	}
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
