package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	epub "github.com/simp-lee/epubreader"
	"github.com/simp-lee/epubreader/config"
)

var errNoBook = errors.New("no ePub file specified")

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func openBook(ctx context.Context, path string) (*epub.Document, error) {
	env := envFromContext(ctx)
	doc, err := epub.Open(path, epub.WithLogger(env.Log))
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	for _, w := range doc.Warnings() {
		env.Log.Warn("Document warning", zap.String("file", path), zap.String("warning", w))
	}
	return doc, nil
}

func runNav(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errNoBook
	}
	doc, err := openBook(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	defer doc.Close()

	w := output(cmd)
	fmt.Fprintf(w, "Title:  %s\n", doc.Title())
	fmt.Fprintf(w, "Author: %s\n", doc.Author())
	md := doc.Metadata()
	if md.Publisher != "" {
		fmt.Fprintf(w, "Publisher:  %s\n", md.Publisher)
	}
	if len(md.Language) > 0 {
		fmt.Fprintf(w, "Language:   %s\n", strings.Join(md.Language, ", "))
	}
	for _, id := range md.Identifiers {
		if id.Scheme != "" {
			fmt.Fprintf(w, "Identifier: %s (%s)\n", id.Value, id.Scheme)
		} else {
			fmt.Fprintf(w, "Identifier: %s\n", id.Value)
		}
	}
	for _, e := range doc.Navigation() {
		fmt.Fprintf(w, "%4d  %s → %s\n", e.Index, e.Label, e.Target)
	}
	return nil
}

func runChapter(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("expected BOOK and INDEX, got %d argument(s)", cmd.Args().Len())
	}
	index, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("bad chapter index '%s': %w", cmd.Args().Get(1), err)
	}
	doc, err := openBook(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	defer doc.Close()

	if index < 0 || index >= len(doc.Navigation()) {
		envFromContext(ctx).Log.Warn("Chapter index out of range", zap.Int("index", index), zap.Int("chapters", len(doc.Navigation())))
	}
	w := output(cmd)
	for _, item := range doc.ChapterContent(index) {
		fmt.Fprintln(w, formatItem(item))
	}
	return nil
}

// formatItem renders a content item as a single line: attribute tags in
// brackets followed by the text or image path.
func formatItem(item epub.ContentItem) string {
	switch v := item.(type) {
	case epub.ImageRef:
		if v.Remote() {
			return "[image remote] " + v.Path
		}
		return "[image] " + v.Path
	case epub.TextRun:
		var tags []string
		if v.Diagnostic() {
			tags = append(tags, "!")
		}
		if v.Heading != epub.HeaderNone {
			tags = append(tags, fmt.Sprintf("h%d", v.Heading))
		}
		if v.Strong {
			tags = append(tags, "b")
		}
		if v.Align != epub.AlignLeft {
			tags = append(tags, v.Align.String())
		}
		if v.Color != "" {
			tags = append(tags, "color="+v.Color)
		}
		if len(tags) == 0 {
			return v.Text
		}
		return "[" + strings.Join(tags, " ") + "] " + v.Text
	default:
		return fmt.Sprint(item)
	}
}

func runList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errNoBook
	}
	doc, err := openBook(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	defer doc.Close()

	w := output(cmd)
	for _, name := range doc.Entries() {
		fmt.Fprintln(w, name)
	}
	return nil
}

func runDumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		err  error
	)
	if cmd.Bool("default") {
		data = config.Prepare()
	} else if data, err = config.Dump(env.Cfg); err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		_, err = output(cmd).Write(data)
	} else {
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
