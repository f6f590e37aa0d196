package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sthwalo/acc/internal/feed"
)

func newImportCommand() *cobra.Command {
	var dir string
	var format string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import bank statement files as transactions",
		Long: `Import parses statement files into read-only transactions.

With a file argument only that file is imported. Without one, every CSV
in the workspace's import/ directory is imported and moved to
import/processed/. Re-importing a file is a no-op.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			parser := feed.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown statement format %q", format)
			}

			if len(args) == 1 {
				result, err := importFile(a, parser, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d imported, %d skipped\n", args[0], result.Inserted, result.Skipped)
				return nil
			}

			files, err := feed.Scan(a.dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("Nothing to import")
				return nil
			}
			for _, f := range files {
				result, err := importFile(a, parser, f.Path)
				if err != nil {
					return fmt.Errorf("importing %s: %w", f.Name, err)
				}
				if err := feed.MarkProcessed(a.dir, f.Name); err != nil {
					return err
				}
				fmt.Printf("%s: %d imported, %d skipped\n", f.Name, result.Inserted, result.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&format, "format", "statement", "statement file format")

	return cmd
}

func importFile(a *app, parser feed.Parser, path string) (feed.LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return feed.LoadResult{}, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	rows, err := parser.Parse(f)
	if err != nil {
		return feed.LoadResult{}, err
	}
	return feed.Load(a.db, a.companyID(), rows)
}
