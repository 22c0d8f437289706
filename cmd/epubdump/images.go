package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	epub "github.com/simp-lee/epubreader"
	"github.com/simp-lee/epubreader/config"
)

// chapterImages holds the local images referenced by one navigation entry.
type chapterImages struct {
	entry epub.NavEntry
	paths []string
}

func runImages(ctx context.Context, cmd *cli.Command) (err error) {
	if cmd.Args().Len() == 0 {
		return errNoBook
	}
	env := envFromContext(ctx)
	out := cmd.String("out")

	for _, book := range cmd.Args().Slice() {
		if ctx.Err() != nil {
			return multierr.Append(err, ctx.Err())
		}
		n, er := exportBook(ctx, book, out, cmd.Bool("cover"), env)
		if er != nil {
			env.Log.Error("Unable to export images", zap.String("file", book), zap.Error(er))
			err = multierr.Append(err, er)
			continue
		}
		env.Log.Info("Images exported", zap.String("file", book), zap.Int("count", n))
	}
	return err
}

// exportBook writes every local image of book under out/<book slug>/ and
// returns the number of files written.
func exportBook(ctx context.Context, book, out string, withCover bool, env *localEnv) (int, error) {
	doc, err := openBook(ctx, book)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	chapters, err := collectImages(ctx, doc, env.Cfg.Images.WorkerCount())
	if err != nil {
		return 0, err
	}

	dir := filepath.Join(out, bookDirName(doc.Title(), book))
	log := env.Log.With(zap.String("file", book))
	written := 0

	if withCover {
		if img, err := doc.Cover(); err == nil {
			if err := saveImage(img, filepath.Join(dir, "cover"+path.Ext(img.Path)), env.Cfg.Images); err != nil {
				return written, err
			}
			written++
		} else {
			log.Warn("No cover exported", zap.Error(err))
		}
	}

	for _, ch := range chapters {
		if len(ch.paths) == 0 {
			continue
		}
		chDir := filepath.Join(dir, chapterDirName(ch.entry))
		used := make(map[string]bool, len(ch.paths))
		for _, p := range ch.paths {
			img, err := doc.Image(p)
			if err != nil {
				log.Warn("Skipping image", zap.Int("chapter", ch.entry.Index), zap.String("path", p), zap.Error(err))
				continue
			}
			name := uniqueName(used, path.Base(p))
			if name != path.Base(p) {
				log.Debug("Image renamed", zap.String("path", p), zap.String("name", name))
			}
			if err := saveImage(img, filepath.Join(chDir, name), env.Cfg.Images); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// collectImages flattens every chapter with up to workers goroutines and
// returns the distinct local image paths of each, in navigation order.
func collectImages(ctx context.Context, doc *epub.Document, workers int) ([]chapterImages, error) {
	nav := doc.Navigation()
	result := make([]chapterImages, len(nav))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range nav {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seen := make(map[string]bool)
			ch := chapterImages{entry: e}
			for _, item := range doc.ChapterContent(e.Index) {
				ref, ok := item.(epub.ImageRef)
				if !ok || ref.Remote() || seen[ref.Path] {
					continue
				}
				seen[ref.Path] = true
				ch.paths = append(ch.paths, ref.Path)
			}
			result[e.Index] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func bookDirName(title, file string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return config.CleanFileName(base)
}

func chapterDirName(e epub.NavEntry) string {
	name := fmt.Sprintf("%03d", e.Index)
	if s := slug.Make(e.Label); s != "" {
		name += "-" + s
	}
	return name
}

// uniqueName returns name, or name with a "-N" suffix before its extension
// when name is already in used, and records the result.
func uniqueName(used map[string]bool, name string) string {
	candidate := name
	ext := path.Ext(name)
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	used[candidate] = true
	return candidate
}

// saveImage writes img to dst, scaled down to fit the configured limits when
// it is a raster image larger than them. Images imaging cannot re-encode are
// written unchanged.
func saveImage(img epub.Image, dst string, cfg config.ImagesConfig) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create directory for '%s': %w", dst, err)
	}

	w, h, resize := fitSize(img.Width, img.Height, cfg.MaxWidth, cfg.MaxHeight)
	if resize {
		if _, err := imaging.FormatFromFilename(dst); err == nil {
			src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
			if err == nil {
				return saveResized(src, dst, w, h)
			}
		}
	}
	if err := os.WriteFile(dst, img.Data, 0644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", dst, err)
	}
	return nil
}

func saveResized(src image.Image, dst string, w, h int) error {
	if err := imaging.Save(imaging.Resize(src, w, h, imaging.Lanczos), dst); err != nil {
		return fmt.Errorf("unable to write resized '%s': %w", dst, err)
	}
	return nil
}

// fitSize returns the target size of a width×height image bounded by maxW and
// maxH (0 meaning unbounded), keeping the aspect ratio. A zero target side
// tells imaging to derive it from the other. resize is false when the image
// already fits or its size is unknown.
func fitSize(width, height, maxW, maxH int) (w, h int, resize bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	overW := maxW > 0 && width > maxW
	overH := maxH > 0 && height > maxH
	switch {
	case !overW && !overH:
		return width, height, false
	case overW && (!overH || width*maxH >= height*maxW):
		return maxW, 0, true
	default:
		return 0, maxH, true
	}
}
