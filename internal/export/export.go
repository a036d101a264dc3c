package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/pixel"
)

// Exporter errors.
var (
	// ErrShortBuffer is returned when the buffer holds fewer bytes than
	// width*height*channels.
	ErrShortBuffer = errors.New("export: buffer shorter than image")

	// ErrUnknownFormat is returned by Lookup for unregistered formats.
	ErrUnknownFormat = errors.New("export: unknown format")

	// ErrNilBuffer is returned when Export is handed no buffer.
	ErrNilBuffer = errors.New("export: nil buffer")

	// ErrDuplicate is returned by Register for a name already in the set.
	ErrDuplicate = errors.New("export: format already registered")
)

// ExportError describes a failed export.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter writes a pixel buffer to a file.
type Exporter interface {
	Name() string
	Extension() string
	Export(path string, buf *PixelBuffer, width, height, channels int) error
}

// EncodeFunc writes the buffer to w.
type EncodeFunc func(w io.Writer, buf *PixelBuffer, width, height, channels int) error

// fileExporter owns the create/close/rewind discipline shared by every
// format.
type fileExporter struct {
	name   string
	ext    string
	encode EncodeFunc
	logger *logging.Logger
}

func (e *fileExporter) Name() string      { return e.name }
func (e *fileExporter) Extension() string { return e.ext }

func (e *fileExporter) Export(path string, buf *PixelBuffer, width, height, channels int) (err error) {
	if buf == nil {
		e.logger.WithField("format", e.name).Error("export to %s failed: %v", path, ErrNilBuffer)
		return &ExportError{Format: e.name, Path: path, Err: ErrNilBuffer}
	}
	defer func() {
		// Rewind can only fail for positions outside the buffer; zero never is.
		_ = buf.SetPosition(0)
		if err != nil {
			e.logger.WithField("format", e.name).Error("export to %s failed: %v", path, err)
			err = &ExportError{Format: e.name, Path: path, Err: err}
		}
	}()

	if !pixel.ValidChannels(channels) {
		return fmt.Errorf("%w: %d", pixel.ErrChannels, channels)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := e.encode(f, buf, width, height, channels); err != nil {
		return err
	}
	e.logger.WithField("format", e.name).Debug("exported %dx%d to %s", width, height, path)
	return nil
}

// Option configures exporters.
type Option func(*fileExporter)

// WithLogger logs export failures.
func WithLogger(l *logging.Logger) Option {
	return func(e *fileExporter) { e.logger = l.WithComponent("export") }
}

// New creates an exporter that writes files with enc. The file is created
// before enc runs and closed after it, and buf is rewound either way.
func New(name, ext string, enc EncodeFunc, opts ...Option) Exporter {
	return newExporter(name, ext, enc, opts)
}

func newExporter(name, ext string, enc EncodeFunc, opts []Option) Exporter {
	e := &fileExporter{name: name, ext: ext, encode: enc, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Raw writes the remaining bytes with no header. Readers need the
// dimensions and channel count out of band.
func Raw(opts ...Option) Exporter {
	return newExporter("raw", ".raw", func(w io.Writer, buf *PixelBuffer, _, _, _ int) error {
		_, err := io.Copy(w, buf)
		return err
	}, opts)
}

// PNG writes an 8-bit NRGBA PNG.
func PNG(opts ...Option) Exporter {
	return newExporter("png", ".png", func(w io.Writer, buf *PixelBuffer, width, height, channels int) error {
		img, err := toImage(buf, width, height, channels)
		if err != nil {
			return err
		}
		return png.Encode(w, img)
	}, opts)
}

// BMP writes a BMP image.
func BMP(opts ...Option) Exporter {
	return newExporter("bmp", ".bmp", func(w io.Writer, buf *PixelBuffer, width, height, channels int) error {
		img, err := toImage(buf, width, height, channels)
		if err != nil {
			return err
		}
		return bmp.Encode(w, img)
	}, opts)
}

// TIFF writes a deflate-compressed TIFF image.
func TIFF(opts ...Option) Exporter {
	return newExporter("tiff", ".tiff", func(w io.Writer, buf *PixelBuffer, width, height, channels int) error {
		img, err := toImage(buf, width, height, channels)
		if err != nil {
			return err
		}
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}, opts)
}

// pdfPixelSize is the side of one pixel on the PDF page, in points.
const pdfPixelSize = 4.0

// PDF draws one filled square per visible pixel on a page sized to the
// image.
func PDF(opts ...Option) Exporter {
	return newExporter("pdf", ".pdf", func(w io.Writer, buf *PixelBuffer, width, height, channels int) error {
		img, err := toImage(buf, width, height, channels)
		if err != nil {
			return err
		}
		doc := gofpdf.NewCustom(&gofpdf.InitType{
			OrientationStr: "P",
			UnitStr:        "pt",
			Size:           gofpdf.SizeType{Wd: float64(width) * pdfPixelSize, Ht: float64(height) * pdfPixelSize},
		})
		doc.AddPage()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := img.NRGBAAt(x, y)
				if c.A == 0 {
					continue
				}
				doc.SetAlpha(float64(c.A)/255, "Normal")
				doc.SetFillColor(int(c.R), int(c.G), int(c.B))
				doc.Rect(float64(x)*pdfPixelSize, float64(y)*pdfPixelSize, pdfPixelSize, pdfPixelSize, "F")
			}
		}
		return doc.Output(w)
	}, opts)
}

// toImage reads width*height pixels from buf. Buffer rows run bottom to
// top; image rows run top to bottom.
func toImage(buf *PixelBuffer, width, height, channels int) (*image.NRGBA, error) {
	need := width * height * channels
	if buf.Remaining() < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, buf.Remaining(), need)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	px := make(pixel.Color, channels)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if _, err := io.ReadFull(buf, px); err != nil {
				return nil, err
			}
			img.SetNRGBA(col, height-1-row, px.NRGBA())
		}
	}
	return img, nil
}

// Set is a collection of exporters keyed by name.
type Set struct {
	exporters map[string]Exporter
}

// Builtins returns every built-in exporter.
func Builtins(opts ...Option) *Set {
	s := &Set{exporters: make(map[string]Exporter)}
	for _, e := range []Exporter{Raw(opts...), PNG(opts...), BMP(opts...), TIFF(opts...), PDF(opts...)} {
		s.exporters[e.Name()] = e
	}
	return s
}

// Register adds e under its lower-cased name.
func (s *Set) Register(e Exporter) error {
	name := strings.ToLower(e.Name())
	if _, exists := s.exporters[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	s.exporters[name] = e
	return nil
}

// Clone returns a copy of the set that can be extended independently.
func (s *Set) Clone() *Set {
	c := &Set{exporters: make(map[string]Exporter, len(s.exporters))}
	for n, e := range s.exporters {
		c.exporters[n] = e
	}
	return c
}

// Lookup finds an exporter by name, case-insensitively.
func (s *Set) Lookup(name string) (Exporter, error) {
	if e, ok := s.exporters[strings.ToLower(name)]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Names returns the sorted exporter names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.exporters))
	for n := range s.exporters {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
