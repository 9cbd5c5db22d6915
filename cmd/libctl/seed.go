package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"library-lite/internal/domains/book/model"
	"library-lite/internal/domains/book/repository"
	"library-lite/internal/domains/book/service"
	"library-lite/pkg/database"
)

type seedBook struct {
	Title  string
	ISBN   string
	Year   int
	Genre  []string
	Copies int
}

type seedAuthor struct {
	Name  string
	Bio   string
	Books []seedBook
}

var demoCatalog = []seedAuthor{
	{
		Name: "Ursula K. Le Guin",
		Bio:  "American author of speculative fiction.",
		Books: []seedBook{
			{"A Wizard of Earthsea", "9780547773742", 1968, []string{"Fantasy"}, 3},
			{"The Left Hand of Darkness", "9780441478125", 1969, []string{"Science Fiction"}, 2},
		},
	},
	{
		Name: "Frank Herbert",
		Bio:  "American science fiction author.",
		Books: []seedBook{
			{"Dune", "9780441172719", 1965, []string{"Science Fiction"}, 4},
		},
	},
	{
		Name: "Toni Morrison",
		Bio:  "American novelist, Nobel laureate.",
		Books: []seedBook{
			{"Beloved", "9781400033416", 1987, []string{"Fiction", "Historical"}, 2},
			{"Song of Solomon", "9781400033423", 1977, []string{"Fiction"}, 1},
		},
	},
	{
		Name: "Donald Knuth",
		Bio:  "Computer scientist.",
		Books: []seedBook{
			{"The Art of Computer Programming, Vol. 1", "9780201896831", 1997, []string{"Computer Science"}, 1},
		},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo authors and books",
	Long:  "Insert a small demo catalog. Authors are matched by name and books by ISBN, so re-running skips existing rows.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := service.NewBookService(
			database.NewTxManager(db.Pool),
			repository.NewPostgresBookRepository(db.Pool),
			repository.NewPostgresAuthorRepository(db.Pool),
			nil,
			nil,
		)
		return seedCatalog(ctx, svc, demoCatalog, cmd.OutOrStdout())
	},
}

func seedCatalog(ctx context.Context, svc service.ServiceInterface, catalog []seedAuthor, out io.Writer) error {
	created, skipped := 0, 0
	for _, a := range catalog {
		author, err := findOrCreateAuthor(ctx, svc, a)
		if err != nil {
			return err
		}

		for _, b := range a.Books {
			year, copies := b.Year, b.Copies
			_, err := svc.CreateBook(ctx, &model.CreateBookRequest{
				Title:         b.Title,
				ISBN:          b.ISBN,
				AuthorID:      author.ID,
				PublishedYear: &year,
				Genre:         b.Genre,
				TotalCopies:   &copies,
			})
			switch {
			case errors.Is(err, model.ErrISBNExists):
				skipped++
			case err != nil:
				return fmt.Errorf("seed book %q: %w", b.Title, err)
			default:
				created++
			}
		}
	}

	fmt.Fprintf(out, "Seeded %d books (%d already present)\n", created, skipped)
	return nil
}

func findOrCreateAuthor(ctx context.Context, svc service.ServiceInterface, a seedAuthor) (*model.Author, error) {
	existing, _, err := svc.ListAuthors(ctx, model.AuthorFilter{Search: a.Name, Page: 1, Limit: 10})
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if strings.EqualFold(existing[i].Name, a.Name) {
			return &existing[i], nil
		}
	}

	bio := a.Bio
	author, err := svc.CreateAuthor(ctx, &model.CreateAuthorRequest{Name: a.Name, Bio: &bio})
	if err != nil {
		return nil, fmt.Errorf("seed author %q: %w", a.Name, err)
	}
	return author, nil
}
