package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"
	"github.com/theirongolddev/opsdash/internal/source"
	"github.com/theirongolddev/opsdash/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagImportForce bool

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Validate JSONL exports and copy them into the data directory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportForce, "force", false, "Import files even when some lines fail to decode")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	if err := os.MkdirAll(flagDataDir, 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	rows := make([][]string, 0, len(args))
	imported := 0
	for _, path := range args {
		res := source.ParseFile(source.DiscoveredFile{Path: path, Name: filepath.Base(path)})
		status := "imported"
		switch {
		case res.Err != nil:
			status = "unreadable"
			log.Warn().Err(res.Err).Str("file", path).Msg("skipping export")
		case res.Records.Len() == 0:
			status = "no records"
		case res.ParseErrors > 0 && !flagImportForce:
			status = fmt.Sprintf("%d bad lines", res.ParseErrors)
		default:
			if err := copyExport(path, filepath.Join(flagDataDir, filepath.Base(path))); err != nil {
				return err
			}
			imported++
		}
		rows = append(rows, []string{
			filepath.Base(path),
			cli.FormatNumber(int64(res.Records.Len())),
			cli.FormatNumber(int64(res.ParseErrors)),
			status,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Import",
		Headers: []string{"File", "Records", "Errors", "Status"},
		Rows:    rows,
	}))

	if imported == 0 {
		return errors.New("nothing imported")
	}
	if flagNoCache {
		return nil
	}

	st, err := store.Open(pipeline.CachePath())
	if err != nil {
		log.Warn().Err(err).Msg("cache unavailable, skipping refresh")
		return nil
	}
	defer func() { _ = st.Close() }()
	sr, err := pipeline.SyncCache(flagDataDir, st, nil)
	if err != nil {
		return fmt.Errorf("refreshing cache: %w", err)
	}
	fmt.Printf("  Cache: %d files, %d reparsed\n\n", sr.TotalFiles, sr.Reparsed)
	return nil
}

// copyExport copies src to dst. It refuses to overwrite a file with other content.
func copyExport(src, dst string) error {
	srcAbs, _ := filepath.Abs(src)
	dstAbs, _ := filepath.Abs(dst)
	if srcAbs == dstAbs {
		return nil
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s already exists in %s", filepath.Base(dst), filepath.Dir(dst))
	}

	//nolint:gosec // path given on the command line
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
