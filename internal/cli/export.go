package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/exporters"
)

// ExportCommand writes books.csv and borrowed_books.csv from whatever
// backend holds the catalog.
type ExportCommand struct {
	Dir   string
	Stamp bool

	cfg *config.Config
	out io.Writer
	now func() time.Time
}

func NewExportCommand(cfg *config.Config) *ExportCommand {
	return &ExportCommand{cfg: cfg, out: os.Stdout, now: time.Now}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	fs.StringVar(&cmd.Dir, "dir", ".", "Directory to write the CSV files into")
	fs.BoolVar(&cmd.Stamp, "stamp", false, "Add a UTC timestamp to the file names, as backups do")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [-dir <path>] [-stamp]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Write the catalog as books.csv and borrowed_books.csv.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ExportCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(ctx, cmd.cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	var stamp time.Time
	if cmd.Stamp {
		stamp = cmd.now()
	}

	result, err := exporters.ExportCatalog(ctx, lib.store, cmd.Dir, stamp)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Exported %d books to %s\n", result.BooksExported, result.BooksFile)
	fmt.Fprintf(cmd.out, "Exported %d borrow records to %s\n", result.BooksBorrowed, result.BorrowedFile)
	return nil
}
