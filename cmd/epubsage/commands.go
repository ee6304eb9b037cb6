package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Abdullah-Wex/epubsage"
	"github.com/Abdullah-Wex/epubsage/export"
	"github.com/Abdullah-Wex/epubsage/search"
	"github.com/Abdullah-Wex/epubsage/structure"
	"github.com/Abdullah-Wex/epubsage/toc"
)

func openBook(ctx context.Context, cmd *cli.Command) (*epubsage.Book, error) {
	file := cmd.Args().Get(0)
	if file == "" {
		return nil, fmt.Errorf("missing EPUB file argument")
	}
	e := envFromContext(ctx)
	book, err := epubsage.Open(file, epubsage.WithLogger(e.log))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	for _, w := range book.Warnings {
		e.log.Warn("extraction warning", zap.String("warning", w.String()))
	}
	return book, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show a summary of the book",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			e := envFromContext(ctx)
			stats := book.Stats(e.cfg.Extract.ReadingSpeedWPM)
			fmt.Printf("Title:        %s\n", book.Metadata.Title)
			fmt.Printf("Author:       %s\n", book.Metadata.PrimaryAuthor())
			fmt.Printf("Language:     %s\n", book.Metadata.Language)
			fmt.Printf("Version:      EPUB %s\n", book.Version)
			fmt.Printf("Chapters:     %d\n", stats.Chapters)
			fmt.Printf("Sections:     %d\n", stats.Sections)
			fmt.Printf("Words:        %d\n", stats.Words)
			fmt.Printf("Images:       %d\n", stats.Images)
			fmt.Printf("Files:        %d (%d bytes)\n", len(book.Files()), book.TotalSize())
			fmt.Printf("Reading time: %s\n", stats.ReadingTime)
			if len(book.Warnings) > 0 {
				fmt.Printf("Warnings:     %d\n", len(book.Warnings))
			}
			return nil
		},
	}
}

func metadataCommand() *cli.Command {
	return &cli.Command{
		Name:      "metadata",
		Usage:     "Show the book's metadata",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "output as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			if cmd.Bool("json") {
				e := envFromContext(ctx)
				doc := export.Build(book, export.MetadataOnly, e.cfg.Extract.ReadingSpeedWPM)
				return doc.Write(os.Stdout)
			}

			m := book.Metadata
			fmt.Printf("Title:       %s\n", m.Title)
			for _, c := range m.Creators {
				if c.Role != "" {
					fmt.Printf("Creator:     %s (%s)\n", c.Name, c.Role)
				} else {
					fmt.Printf("Creator:     %s\n", c.Name)
				}
			}
			fmt.Printf("Language:    %s\n", m.Language)
			for _, id := range m.Identifiers {
				fmt.Printf("Identifier:  %s\n", id.Value)
			}
			if isbn := m.ISBN(); isbn != "" {
				fmt.Printf("ISBN:        %s\n", isbn)
			}
			if m.Publisher != "" {
				fmt.Printf("Publisher:   %s\n", m.Publisher)
			}
			for _, s := range m.Subjects {
				fmt.Printf("Subject:     %s\n", s)
			}
			if m.Description != "" {
				fmt.Printf("Description: %s\n", m.Description)
			}
			return nil
		},
	}
}

func tocCommand() *cli.Command {
	return &cli.Command{
		Name:      "toc",
		Usage:     "Show the table of contents",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			if book.Navigation == nil {
				fmt.Println("(no table of contents)")
				return nil
			}
			if book.Navigation.Title != "" {
				fmt.Println(book.Navigation.Title)
			}
			printPoints(book.Navigation.Points, 0)
			return nil
		},
	}
}

func printPoints(points []*toc.NavigationPoint, depth int) {
	for _, p := range points {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), p.Label)
		printPoints(p.Children, depth+1)
	}
}

func chaptersCommand() *cli.Command {
	return &cli.Command{
		Name:      "chapters",
		Usage:     "List chapters with their sections and word counts",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			for _, ch := range book.Chapters {
				fmt.Printf("%3d  %-12s %6d words  %s\n", ch.Order, ch.Type, ch.WordCount, ch.Title)
				for _, sec := range ch.Sections {
					printSections(sec, 1)
				}
			}
			return nil
		},
	}
}

func printSections(sec *structure.Section, depth int) {
	fmt.Printf("%s- %s (%d words)\n", strings.Repeat("  ", depth+1), sec.Title, sec.WordCount)
	for _, sub := range sec.Subsections {
		printSections(sub, depth+1)
	}
}

func spineCommand() *cli.Command {
	return &cli.Command{
		Name:      "spine",
		Usage:     "List the spine (reading order)",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			for i, si := range book.Package.Spine {
				linear := ""
				if !si.Linear {
					linear = "  (non-linear)"
				}
				fmt.Printf("%3d  %s%s\n", i, si.IDRef, linear)
			}
			return nil
		},
	}
}

func manifestCommand() *cli.Command {
	return &cli.Command{
		Name:      "manifest",
		Usage:     "List the manifest items",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			for _, item := range book.Package.Manifest {
				props := ""
				if len(item.Properties) > 0 {
					props = "  [" + strings.Join(item.Properties, " ") + "]"
				}
				fmt.Printf("%-20s %-30s %s%s\n", item.ID, item.MediaType, item.Href, props)
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List all files in the container",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"},
				Usage: "only show files with this `EXTENSION` (e.g. xhtml, css, png)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			ext := strings.TrimPrefix(strings.ToLower(cmd.String("type")), ".")
			for _, name := range book.Files() {
				if ext != "" && strings.TrimPrefix(path.Ext(name), ".") != ext {
					continue
				}
				fmt.Println(name)
			}
			return nil
		},
	}
}

func imagesCommand() *cli.Command {
	return &cli.Command{
		Name:      "images",
		Usage:     "List images, optionally extracting them",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "extract", Usage: "extract images into `DIR`"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			if dir := cmd.String("extract"); dir != "" {
				written, err := book.ExtractImages(dir)
				if err != nil {
					return err
				}
				for _, name := range written {
					fmt.Println(filepath.Join(dir, filepath.FromSlash(name)))
				}
				return nil
			}
			for _, name := range book.Images() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func coverCommand() *cli.Command {
	return &cli.Command{
		Name:      "cover",
		Usage:     "Extract the cover image",
		ArgsUsage: "FILE [DESTINATION]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			name, data, err := book.Cover()
			if err != nil {
				return err
			}
			dest := cmd.Args().Get(1)
			if dest == "" {
				dest = filepath.Base(name)
			}
			if err := os.WriteFile(dest, data, 0644); err != nil {
				return fmt.Errorf("write cover: %w", err)
			}
			fmt.Printf("%s (%d bytes)\n", dest, len(data))
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract structured content as JSON, or the raw files",
		ArgsUsage: "FILE [DESTINATION]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: string(export.Full),
				Usage: "export `MODE`: full, metadata, compact"},
			&cli.BoolFlag{Name: "raw", Usage: "extract the container's files instead of JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mode := export.Mode(cmd.String("mode"))
			switch mode {
			case export.Full, export.MetadataOnly, export.Compact:
			default:
				return fmt.Errorf("unknown export mode %q", mode)
			}

			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			if cmd.Bool("raw") {
				dest := cmd.Args().Get(1)
				if dest == "" {
					return fmt.Errorf("raw extraction needs a destination directory")
				}
				if err := book.ExtractAll(dest); err != nil {
					return err
				}
				fmt.Printf("%d files extracted to %s\n", len(book.Files()), dest)
				return nil
			}

			e := envFromContext(ctx)
			doc := export.Build(book, mode, e.cfg.Extract.ReadingSpeedWPM)

			if dest := cmd.Args().Get(1); dest != "" {
				if err := doc.Save(dest); err != nil {
					return err
				}
				e.log.Info("saved export", zap.String("file", dest), zap.String("mode", string(mode)))
				return nil
			}
			return doc.Write(os.Stdout)
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over the book's sections",
		ArgsUsage: "FILE QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of `HITS`"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().Get(1)
			if query == "" {
				return fmt.Errorf("missing search query")
			}

			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			ix, err := search.New()
			if err != nil {
				return err
			}
			defer ix.Close()

			for _, ch := range book.Chapters {
				for _, sec := range ch.Sections {
					if err := indexSection(ix, ch.File, sec); err != nil {
						return err
					}
				}
			}

			e := envFromContext(ctx)
			limit := int(cmd.Int("limit"))
			if limit == 0 {
				limit = e.cfg.Search.Limit
			}
			hits, err := ix.Search(query, limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("no matches")
				return nil
			}
			for _, h := range hits {
				fmt.Printf("%s#%s  %s\n    %s\n", h.File, h.SectionID, h.Title, h.Snippet)
			}
			return nil
		},
	}
}

func indexSection(ix *search.Index, file string, sec *structure.Section) error {
	if err := ix.Add(file, sec.ID, sec.Title, sec.Text()); err != nil {
		return err
	}
	for _, sub := range sec.Subsections {
		if err := indexSection(ix, file, sub); err != nil {
			return err
		}
	}
	return nil
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show word counts and reading time",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "wpm", Usage: "reading speed in words per `MINUTE`"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			e := envFromContext(ctx)
			wpm := int(cmd.Int("wpm"))
			if wpm == 0 {
				wpm = e.cfg.Extract.ReadingSpeedWPM
			}
			stats := book.Stats(wpm)
			fmt.Printf("Chapters:     %d\n", stats.Chapters)
			fmt.Printf("Sections:     %d\n", stats.Sections)
			fmt.Printf("Words:        %d\n", stats.Words)
			fmt.Printf("Images:       %d\n", stats.Images)
			fmt.Printf("Reading time: %s (at %d wpm)\n", stats.ReadingTime, wpm)
			if len(book.Chapters) > 0 {
				longest, shortest := book.Chapters[0], book.Chapters[0]
				for _, ch := range book.Chapters[1:] {
					if ch.WordCount > longest.WordCount {
						longest = ch
					}
					if ch.WordCount < shortest.WordCount {
						shortest = ch
					}
				}
				fmt.Printf("Longest:      %s (%d words)\n", longest.Title, longest.WordCount)
				fmt.Printf("Shortest:     %s (%d words)\n", shortest.Title, shortest.WordCount)
			}
			for _, ch := range book.Chapters {
				fmt.Printf("%6d  %s\n", ch.WordCount, ch.Title)
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check the package document for required metadata",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			book, err := openBook(ctx, cmd)
			if err != nil {
				return err
			}
			defer book.Close()

			v := book.Validate()
			fmt.Printf("Valid:          %v\n", v.Valid)
			fmt.Printf("Quality score:  %.0f%%\n", v.QualityScore*100)
			fmt.Printf("Manifest items: %d\n", v.ManifestItems)
			fmt.Printf("Spine items:    %d\n", v.SpineItems)
			for _, field := range []string{"title", "creator", "identifier", "language"} {
				mark := "ok"
				if !v.RequiredFields[field] {
					mark = "MISSING"
				}
				fmt.Printf("  %-12s %s\n", field, mark)
			}
			for _, w := range v.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			if !v.Valid {
				return fmt.Errorf("%s does not satisfy required metadata", cmd.Args().Get(0))
			}
			return nil
		},
	}
}
