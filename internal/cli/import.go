package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/importers"
)

// ImportCommand adds the books of a CSV or YAML file to the catalog.
type ImportCommand struct {
	FilePath string
	Verbose  bool
	DryRun   bool

	cfg *config.Config
	out io.Writer
}

func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{cfg: cfg, out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a .csv or .yaml file of books (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every book as it is imported")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add books to the catalog configured by CATALOG_BACKEND.\n\n")
		fmt.Fprintf(os.Stderr, "CSV files need a header with title and author columns; year is optional\n")
		fmt.Fprintf(os.Stderr, "and book_id is ignored, so a books.csv from another library works as is.\n")
		fmt.Fprintf(os.Stderr, "YAML files hold a top-level 'books' list.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file old/books.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file seed.yaml -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run(ctx context.Context) error {
	fmt.Fprintln(cmd.out, "Catalog Import")
	fmt.Fprintln(cmd.out, "==============")

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "DRY RUN MODE - No changes will be made")
	}

	books, parseErrors, err := importers.ParseFile(cmd.FilePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "File: %s\n", cmd.FilePath)
	fmt.Fprintf(cmd.out, "Found %d books\n", len(books))
	for _, msg := range parseErrors {
		fmt.Fprintf(cmd.out, "  [SKIPPED] %s\n", msg)
	}

	if cmd.Verbose {
		for i, b := range books {
			fmt.Fprintf(cmd.out, "%d. %q by %s (%s)\n", i+1, b.Title, b.Author, b.Year)
		}
	}

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "\nDry run complete. Use without -dry-run to import.")
		return nil
	}
	if len(books) == 0 {
		return nil
	}

	lib, err := openLibrary(ctx, cmd.cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	result, err := importers.NewPipeline(lib.store).Import(ctx, books)
	lib.audit.LogImport(ctx, cmd.FilePath, result.BooksImported, err)
	if err != nil {
		return fmt.Errorf("import interrupted after %d books: %w", result.BooksImported, err)
	}

	fmt.Fprintln(cmd.out, "\n=== Import Summary ===")
	fmt.Fprintf(cmd.out, "Books imported: %d/%d\n", result.BooksImported, len(books))
	if result.BooksFailed > 0 {
		fmt.Fprintf(cmd.out, "\n%d errors occurred:\n", result.BooksFailed)
		for _, msg := range result.Errors {
			fmt.Fprintf(cmd.out, "  [ERROR] %s\n", msg)
		}
	}
	return nil
}
