package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/pixel"
)

func TestPixelBuffer(t *testing.T) {
	b := NewPixelBuffer([]byte{1, 2, 3})
	v, err := b.Get()
	if err != nil || v != 1 || b.Position() != 1 || b.Remaining() != 2 {
		t.Fatalf("Get() = %d, %v; pos %d", v, err, b.Position())
	}
	_, _ = b.Get()
	_, _ = b.Get()
	if b.HasRemaining() {
		t.Error("HasRemaining() after draining")
	}
	if _, err := b.Get(); !errors.Is(err, ErrUnderflow) {
		t.Errorf("Get() past end error = %v", err)
	}
	if err := b.SetPosition(4); !errors.Is(err, ErrPosition) {
		t.Errorf("SetPosition(4) error = %v", err)
	}
	if err := b.SetPosition(0); err != nil || b.Remaining() != 3 {
		t.Errorf("SetPosition(0) = %v, remaining %d", err, b.Remaining())
	}
}

func TestRawRoundTrip(t *testing.T) {
	data := make([]byte, 3*2*4)
	for i := range data {
		data[i] = byte(i * 7)
	}
	buf := NewPixelBuffer(data)
	path := filepath.Join(t.TempDir(), "out.raw")

	if err := Raw().Export(path, buf, 3, 2, 4); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("file = %v, want %v", got, data)
	}
	if buf.Position() != 0 {
		t.Errorf("Position() = %d after export, want 0", buf.Position())
	}
}

func TestRawFromMidPosition(t *testing.T) {
	buf := NewPixelBuffer([]byte{9, 8, 7, 6})
	_ = buf.SetPosition(2)
	path := filepath.Join(t.TempDir(), "tail.raw")

	if err := Raw().Export(path, buf, 1, 1, 2); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, []byte{7, 6}) {
		t.Errorf("file = %v, want remaining bytes", got)
	}
	if buf.Position() != 0 {
		t.Errorf("Position() = %d", buf.Position())
	}
}

func TestExportFailureResetsPosition(t *testing.T) {
	buf := NewPixelBuffer([]byte{1, 2, 3, 4})
	_ = buf.SetPosition(3)
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.raw")

	err := Raw().Export(path, buf, 1, 1, 4)
	var ee *ExportError
	if !errors.As(err, &ee) || ee.Format != "raw" || ee.Path != path {
		t.Fatalf("Export() error = %v, want ExportError", err)
	}
	if buf.Position() != 0 {
		t.Errorf("Position() = %d after failure, want 0", buf.Position())
	}
}

func TestShortBuffer(t *testing.T) {
	buf := NewPixelBuffer([]byte{1, 2, 3})
	path := filepath.Join(t.TempDir(), "out.png")
	err := PNG().Export(path, buf, 2, 2, 4)
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Export() error = %v, want ErrShortBuffer", err)
	}
	if buf.Position() != 0 {
		t.Errorf("Position() = %d", buf.Position())
	}
}

func testBoard(t *testing.T) *artboard.Board {
	t.Helper()
	b, err := artboard.NewBoard(3, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	// Bottom-left red, top-right green.
	if err := b.PutColorInImage(0, 0, 1, 1, pixel.RGBA(4, 0xff, 0, 0, 0xff)); err != nil {
		t.Fatal(err)
	}
	if err := b.PutColorInImage(2, 1, 1, 1, pixel.RGBA(4, 0, 0xff, 0, 0xff)); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestFromBoard(t *testing.T) {
	buf := FromBoard(testBoard(t))
	if buf.Len() != 3*2*4 {
		t.Fatalf("Len() = %d", buf.Len())
	}
	if got := buf.Bytes()[:4]; !bytes.Equal(got, []byte{0xff, 0, 0, 0xff}) {
		t.Errorf("first pixel = %v, want red", got)
	}
	if got := buf.Bytes()[20:]; !bytes.Equal(got, []byte{0, 0xff, 0, 0xff}) {
		t.Errorf("last pixel = %v, want green", got)
	}
}

func TestImageExporters(t *testing.T) {
	dir := t.TempDir()
	b := testBoard(t)

	tests := []struct {
		exp    Exporter
		decode func(path string) (r, g uint32, err error)
	}{
		{PNG(), func(path string) (uint32, uint32, error) {
			f, err := os.Open(path)
			if err != nil {
				return 0, 0, err
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				return 0, 0, err
			}
			r, _, _, _ := img.At(0, 1).RGBA()
			_, g, _, _ := img.At(2, 0).RGBA()
			return r, g, nil
		}},
		{BMP(), func(path string) (uint32, uint32, error) {
			f, err := os.Open(path)
			if err != nil {
				return 0, 0, err
			}
			defer f.Close()
			img, err := bmp.Decode(f)
			if err != nil {
				return 0, 0, err
			}
			r, _, _, _ := img.At(0, 1).RGBA()
			_, g, _, _ := img.At(2, 0).RGBA()
			return r, g, nil
		}},
		{TIFF(), func(path string) (uint32, uint32, error) {
			f, err := os.Open(path)
			if err != nil {
				return 0, 0, err
			}
			defer f.Close()
			img, err := tiff.Decode(f)
			if err != nil {
				return 0, 0, err
			}
			r, _, _, _ := img.At(0, 1).RGBA()
			_, g, _, _ := img.At(2, 0).RGBA()
			return r, g, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.exp.Name(), func(t *testing.T) {
			buf := FromBoard(b)
			path := filepath.Join(dir, "img"+tt.exp.Extension())
			if err := tt.exp.Export(path, buf, b.Width(), b.Height(), 4); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if buf.Position() != 0 {
				t.Errorf("Position() = %d", buf.Position())
			}
			r, g, err := tt.decode(path)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			// Image row 1 is the board's bottom row.
			if r != 0xffff || g != 0xffff {
				t.Errorf("red = %#x, green = %#x; want full", r, g)
			}
		})
	}
}

func TestPDF(t *testing.T) {
	b := testBoard(t)
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := PDF().Export(path, FromBoard(b), b.Width(), b.Height(), 4); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header")
	}
}

func TestLookup(t *testing.T) {
	s := Builtins()
	if e, err := s.Lookup("PNG"); err != nil || e.Name() != "png" {
		t.Errorf("Lookup(PNG) = %v, %v", e, err)
	}
	if _, err := s.Lookup("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Lookup(gif) error = %v", err)
	}
	if got := s.Names(); len(got) != 5 || got[0] != "bmp" {
		t.Errorf("Names() = %v", got)
	}
}

func TestNilBuffer(t *testing.T) {
	for _, name := range Builtins().Names() {
		t.Run(name, func(t *testing.T) {
			e, _ := Builtins().Lookup(name)
			path := filepath.Join(t.TempDir(), "out"+e.Extension())
			err := e.Export(path, nil, 1, 1, 4)
			var ee *ExportError
			if !errors.As(err, &ee) || !errors.Is(err, ErrNilBuffer) {
				t.Fatalf("Export(nil) error = %v, want ExportError wrapping ErrNilBuffer", err)
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("Export(nil) created %s", path)
			}
		})
	}
}

func TestNewCustomExporter(t *testing.T) {
	var gotW, gotH, gotCh int
	hexExp := New("Hex", ".hex", func(w io.Writer, buf *PixelBuffer, width, height, channels int) error {
		gotW, gotH, gotCh = width, height, channels
		for buf.HasRemaining() {
			b, err := buf.Get()
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%02x", b); err != nil {
				return err
			}
		}
		return nil
	})

	buf := NewPixelBuffer([]byte{0xca, 0xfe})
	path := filepath.Join(t.TempDir(), "out.hex")
	if err := hexExp.Export(path, buf, 2, 1, 1); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "cafe" {
		t.Errorf("file = %q, want cafe", got)
	}
	if gotW != 2 || gotH != 1 || gotCh != 1 {
		t.Errorf("encode saw %dx%d/%d", gotW, gotH, gotCh)
	}
	if buf.Position() != 0 {
		t.Errorf("Position() = %d after export", buf.Position())
	}
}

func TestSetRegister(t *testing.T) {
	s := Builtins()
	c := s.Clone()
	hex := New("Hex", ".hex", func(io.Writer, *PixelBuffer, int, int, int) error { return nil })
	if err := c.Register(hex); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if e, err := c.Lookup("hex"); err != nil || e != hex {
		t.Errorf("Lookup(hex) = %v, %v", e, err)
	}
	if _, err := s.Lookup("hex"); !errors.Is(err, ErrUnknownFormat) {
		t.Error("Register on a clone changed the original set")
	}
	if err := c.Register(Raw()); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Register(raw) error = %v, want ErrDuplicate", err)
	}
}
