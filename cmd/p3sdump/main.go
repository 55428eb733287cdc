// Command p3sdump is a small reference consumer of the p3s package: it
// inspects a .3zh file, optionally extracts its preview PNG, and prints the
// loaded shape tree. It exists to exercise LoadAssets and GetPreview end to
// end, the way every complete repo in this pack ships a thin cmd/ entry
// point alongside its library code (deepteams-webp/cmd/gwebp,
// google-wuffs/cmd/*).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/chunkio"
	p3s "github.com/shykes/cubzh"
)

type stdLogger struct{ *log.Logger }

func (l stdLogger) Printf(format string, args ...any) { l.Logger.Printf(format, args...) }

func main() {
	var previewOut string
	var verbose bool
	flag.StringVar(&previewOut, "preview-out", "", "write the file's preview PNG to this path and exit")
	flag.BoolVar(&verbose, "v", false, "log non-fatal parse diagnostics")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: p3sdump [-preview-out path] [-v] <scene.3zh>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if verbose {
		p3s.SetLogger(stdLogger{log.New(os.Stderr, "p3sdump: ", 0)})
	}

	if previewOut != "" {
		if err := dumpPreview(path, previewOut); err != nil {
			log.Fatalf("p3sdump: %+v", err)
		}
		return
	}

	if err := printTree(path); err != nil {
		log.Fatalf("p3sdump: %+v", err)
	}
}

func dumpPreview(path, out string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()
	preview, err := p3s.GetPreview(f)
	if err != nil {
		return errors.Wrap(err, "get preview")
	}
	if preview == nil {
		return errors.New("file has no preview chunk")
	}
	return errors.Wrap(os.WriteFile(out, preview, 0o644), "write preview")
}

func printTree(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	assets, err := p3s.LoadAssets(f, nil, p3s.FilterAny, p3s.ShapeSettings{MaterializeLighting: true})
	if err != nil {
		return errors.Wrap(err, "load assets")
	}

	for _, a := range assets {
		switch a.Kind {
		case p3s.AssetKindPalette:
			fmt.Printf("palette: %d colors (id %d)\n", a.Palette.Count(), chunkio.Palette)
		case p3s.AssetKindShape:
			s := a.Shape
			w, h, d := s.Dims()
			fmt.Printf("shape %d (parent %d): %dx%dx%d, %q, %d children\n",
				s.ShapeID, s.ParentID, w, h, d, s.Name, len(s.Children))
		}
	}
	return nil
}
