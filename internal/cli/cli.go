// Package cli wires the TMX core to a cobra command tree. All parsing,
// editing, and saving logic lives in the core packages; commands here only
// translate flags and arguments.
package cli

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shawnli329/SLTMX-Editor/internal/config"
	"github.com/shawnli329/SLTMX-Editor/internal/edit"
	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
	"github.com/shawnli329/SLTMX-Editor/internal/tmx/parse"
	"github.com/shawnli329/SLTMX-Editor/internal/tmx/write"
	"github.com/shawnli329/SLTMX-Editor/internal/view"
	"github.com/shawnli329/SLTMX-Editor/internal/watch"
)

var configPath string

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "sltmx",
		Short: "TMX translation memory editor core",
		Long:  "Parse, search, edit, and save TMX translation memory files with byte-exact round-trip fidelity for untouched units.",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to default settings")
		return config.Default()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	return cfg
}

// openDocument parses a file on the background job, reporting progress at
// debug level.
func openDocument(path string) (*tmx.Document, error) {
	job := parse.Start(path, parse.WithProgressInterval(1000))
	for p := range job.Progress() {
		pct := int64(0)
		if p.Total > 0 {
			pct = p.Bytes * 100 / p.Total
		}
		log.Debug().Int("units", p.Units).Int64("percent", pct).Msg("Parsing")
	}
	doc, err := job.Result()
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("units", doc.Len()).Msg("Loaded")
	return doc, nil
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show header, languages, and unit statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadConfig()
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("File:      %s\n", doc.Path)
			fmt.Printf("Encoding:  %s\n", doc.SourceEncoding)
			if decl := doc.XMLDeclaration(); decl != "" {
				fmt.Printf("Declared:  %s\n", decl)
			}
			fmt.Printf("Srclang:   %s\n", doc.SourceLanguage())
			fmt.Println("Header:")
			for _, a := range doc.Header.Attrs {
				fmt.Printf("  %s = %s\n", a.Name, a.Value)
			}
			st := doc.Stats()
			fmt.Printf("Units:     %d\n", st.Units)
			for _, lc := range st.Languages {
				fmt.Printf("  %-12s %d segments\n", lc.Lang, lc.Count)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var lang string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "search <file> [query]",
		Short: "List units, optionally filtered by a substring",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if pageSize == 0 {
				pageSize = cfg.PageSize
			}

			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}

			v := view.New(doc)
			if len(args) == 2 {
				if lang != "" {
					v.SetLanguageFilter(lang, args[1])
				} else {
					v.SetFilter(args[1])
				}
			}

			fmt.Printf("%d of %d units match, page %d/%d\n",
				v.FilteredCount(), v.TotalCount(), page+1, v.PageCount(pageSize))
			for _, id := range v.Page(page, pageSize) {
				u, ok := doc.Unit(id)
				if !ok {
					continue
				}
				label := u.TUID()
				if label == "" {
					label = fmt.Sprintf("#%d", id)
				}
				fmt.Printf("%s\n", label)
				for _, seg := range u.Variants {
					fmt.Printf("  %-8s %s\n", seg.Lang, truncate(seg.PlainText(), 100))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "restrict the query to one language")
	cmd.Flags().IntVar(&page, "page", 0, "page index (0-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "units per page (default from config)")
	return cmd
}

func setCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set <file> <tuid-or-index> <lang> <text>",
		Short: "Replace one variant's text and save the file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}

			u, err := findUnit(doc, args[1])
			if err != nil {
				return err
			}

			tracker := edit.NewTracker(doc)
			session, err := tracker.Begin(u.ID, args[2])
			if err != nil {
				return err
			}
			if err := tracker.Apply(session, args[3]); err != nil {
				return err
			}

			if dryRun {
				out, err := write.Render(doc)
				if err != nil {
					return err
				}
				log.Info().
					Int("dirty_units", doc.DirtyCount()).
					Int("output_bytes", len(out)).
					Msg("Dry run, file not written")
				return nil
			}

			var opts []write.Option
			if cfg.Backup {
				opts = append(opts, write.WithBackup(true))
			}
			if err := write.Write(doc, args[0], opts...); err != nil {
				return err
			}
			tracker.AcknowledgeSaved()
			log.Info().Str("file", args[0]).Msg("Saved")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing the file")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Verify that an unedited parse round-trips byte-identically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadConfig()

			original, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			out, err := write.Render(doc)
			if err != nil {
				return err
			}

			if bytes.Equal(original, out) {
				fmt.Println("round-trip: identical")
				return nil
			}
			offset := firstDiff(original, out)
			return fmt.Errorf("round-trip differs at byte %d (input %d bytes, output %d bytes)",
				offset, len(original), len(out))
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Report external changes to a file until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			w, err := watch.New(args[0], watch.WithDebounce(cfg.WatchDebounce))
			if err != nil {
				return err
			}
			defer w.Close()
			log.Info().Str("file", w.Path()).Msg("Watching")

			for {
				select {
				case e, ok := <-w.Events():
					if !ok {
						return nil
					}
					fmt.Printf("%s %s %s\n", e.Time.Format(time.RFC3339), e.Op, e.Path)
				case err, ok := <-w.Errors():
					if !ok {
						return nil
					}
					log.Warn().Err(err).Msg("Watch error")
				}
			}
		},
	}
}

// findUnit resolves a unit by tuid, falling back to a 0-based position.
func findUnit(doc *tmx.Document, key string) (*tmx.Unit, error) {
	for _, u := range doc.Units() {
		if u.TUID() == key {
			return u, nil
		}
	}
	if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < doc.Len() {
		return doc.Units()[idx], nil
	}
	return nil, fmt.Errorf("no unit with tuid or index %q", key)
}

func firstDiff(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
