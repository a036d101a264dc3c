package luascript

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/export"
	"github.com/dshills/spritestudio/internal/history"
	"github.com/dshills/spritestudio/internal/pixel"
	"github.com/dshills/spritestudio/internal/scripts"
)

const fillScript = `
isRenderEvent = true
isTransientEvent = false

function Fill(artboard, editor)
    local prev
    return {
        _do = function()
            prev = artboard:region(0, 0, artboard:width(), artboard:height())
            artboard:putColor(0, 0, artboard:width(), artboard:height(), editor:selectedColor())
        end,
        undo = function()
            artboard:putRegion(0, 0, artboard:width(), artboard:height(), prev)
        end,
    }
end
`

const stripeScript = `
isRenderEvent = true
takesArguments = true
argumentDialogueText = "Row to paint"

function Stripe(artboard, editor, args)
    local row = tonumber(args[1])
    return {
        _do = function()
            artboard:putColor(0, row, artboard:width(), 1, {255, 0, 0, 255})
        end,
        undo = function()
            for x = 0, artboard:width() - 1 do
                artboard:removePixel(x, row)
            end
        end,
    }
end
`

const dotScript = `
isRenderEvent = true
tooltip = "Paints one pixel"

function Dot(brush)
    return {
        canUse = function(self, artboard, editor, x, y)
            if not editor:pressed("artboard_interact") then
                return false
            end
            local want = editor:selectedColor()
            local have = artboard:colorAt(x, y)
            return artboard:layerPixel(x, y) == false or have[1] ~= want[1]
        end,
        use = function(self, artboard, editor, x, y)
            local prev = artboard:layerPixel(x, y)
            local colour = editor:selectedColor()
            return {
                _do = function() artboard:putColor(x, y, 1, 1, colour) end,
                undo = function()
                    if prev then
                        artboard:putIndex(x, y, 1, 1, prev)
                    else
                        artboard:removePixel(x, y)
                    end
                end,
            }
        end,
    }
end
`

const boxScript = `
isRenderEvent = true
stateful = true

function Box(brush)
    local sel = brush.bounder
    return {
        update = function(self, artboard, editor)
            if editor:pressed("move_selection_area") then
                sel:moveCorner(editor:cursor())
            end
        end,
        canUse = function() return false end,
        use = function() return nil end,
    }
end
`

const graysScript = `
name = "Grays"
initialValueScale = 4

function Grays(valueScale)
    return {
        generate = function(self, source, channels, n)
            local out = {}
            for i = 1, n do
                local v = math.floor(source[1] * i / n)
                out[i] = {v, v, v, 255}
            end
            return out
        end,
    }
end
`

func writeScript(t *testing.T, root, folder, name, src string) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newBoard(t *testing.T) (*artboard.MemoryProject, artboard.Artboard, *editor.State) {
	t.Helper()
	p := artboard.NewMemoryProject(4)
	ab, err := p.CreateArtboard(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	return p, ab, editor.NewState(p, pixel.RGBA(4, 10, 20, 30, 255))
}

func loadAll(t *testing.T, root string) (*scripts.Registry, *Loader) {
	t.Helper()
	reg := scripts.NewRegistry()
	l := NewLoader(root, reg, nil)
	t.Cleanup(l.Close)
	if _, err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	return reg, l
}

func unsetCount(ab artboard.Artboard) int {
	n := 0
	for p := range artboard.Region(0, 0, ab.Width(), ab.Height()) {
		if ab.LayerPixel(p.X, p.Y) == nil {
			n++
		}
	}
	return n
}

func TestArtboardScriptUndo(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "Fill.lua", fillScript)
	reg, _ := loadAll(t, root)

	_, ab, ed := newBoard(t)
	if err := ab.PutColorInImage(1, 1, 1, 1, pixel.RGBA(4, 1, 2, 3, 4)); err != nil {
		t.Fatal(err)
	}
	before := ab.LayerPixel(1, 1)

	stack := history.New(10)
	ctx := context.Background()
	if err := reg.RunArtboard(ctx, stack, "Fill", ab, ed, nil); err != nil {
		t.Fatalf("RunArtboard() error = %v", err)
	}
	if unsetCount(ab) != 0 || !ab.ColorAt(3, 2).Equal(ed.SelectedColor()) {
		t.Fatal("fill did not cover the board")
	}

	if err := stack.Undo(ctx); err != nil {
		t.Fatal(err)
	}
	if unsetCount(ab) != 11 {
		t.Errorf("unset after undo = %d, want 11", unsetCount(ab))
	}
	if !pixel.SameIndex(ab.LayerPixel(1, 1), before) {
		t.Error("undo did not restore the set pixel")
	}
}

func TestArtboardScriptArguments(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "Stripe.lua", stripeScript)
	reg, _ := loadAll(t, root)

	s, err := reg.Artboard("Stripe")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Meta.TakesArguments || s.Meta.ArgumentDialogueText != "Row to paint" {
		t.Errorf("Meta = %+v", s.Meta)
	}

	_, ab, ed := newBoard(t)
	if err := reg.RunArtboard(context.Background(), history.New(5), "Stripe", ab, ed, []string{"2"}); err != nil {
		t.Fatal(err)
	}
	if ab.LayerPixel(0, 2) == nil || ab.LayerPixel(0, 1) != nil {
		t.Error("stripe painted the wrong row")
	}
}

func TestRejectedScripts(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "Fill.lua", fillScript)
	writeScript(t, root, "artboards", "NoFlags.lua", `function NoFlags() return nil end`)
	writeScript(t, root, "artboards", "NoEntry.lua", `isRenderEvent = true`)
	writeScript(t, root, "artboards", "Broken.lua", `isRenderEvent = = true`)
	writeScript(t, root, "artboards", "__shared.lua", `error("must not load")`)
	writeScript(t, root, "artboards", "notes.txt", `not a script`)

	reg := scripts.NewRegistry()
	l := NewLoader(root, reg, nil)
	defer l.Close()

	n, err := l.LoadAll()
	if n != 1 {
		t.Errorf("LoadAll() loaded %d, want 1", n)
	}
	if !errors.Is(err, event.ErrInvalidMeta) {
		t.Errorf("LoadAll() error = %v, want ErrInvalidMeta", err)
	}
	if !errors.Is(err, ErrNoEntry) {
		t.Errorf("LoadAll() error = %v, want ErrNoEntry", err)
	}
	if got := reg.Names(scripts.Artboards); len(got) != 1 || got[0] != "Fill" {
		t.Errorf("Names() = %v", got)
	}
}

func TestNilEventFromScript(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "Nothing.lua", "isRenderEvent = false\nfunction Nothing() return nil end")
	reg, _ := loadAll(t, root)

	_, ab, ed := newBoard(t)
	err := reg.RunArtboard(context.Background(), history.New(5), "Nothing", ab, ed, nil)
	if !errors.Is(err, event.ErrNilEvent) {
		t.Errorf("RunArtboard() error = %v, want ErrNilEvent", err)
	}
}

func TestScriptErrorInDo(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "Fails.lua", `
isRenderEvent = true
function Fails() return { _do = function() error("out of ink") end, undo = function() end } end
`)
	reg, _ := loadAll(t, root)

	_, ab, ed := newBoard(t)
	stack := history.New(5)
	if err := reg.RunArtboard(context.Background(), stack, "Fails", ab, ed, nil); err == nil {
		t.Fatal("RunArtboard() error = nil")
	}
	if stack.CanUndo() {
		t.Error("failed event was recorded")
	}
}

func TestNonUndoableScriptRejected(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "OneWay.lua", `
isRenderEvent = true
function OneWay(artboard) return { _do = function() artboard:checkered() end } end
`)
	reg, _ := loadAll(t, root)

	_, ab, ed := newBoard(t)
	err := reg.RunArtboard(context.Background(), history.New(5), "OneWay", ab, ed, nil)
	if !errors.Is(err, event.ErrNotUndoable) {
		t.Errorf("RunArtboard() error = %v, want ErrNotUndoable", err)
	}
}

func TestProjectScript(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "projects", "Count.lua", `
isRenderEvent = false
isTransientEvent = true
function Count(project, editor)
    return { _do = function()
        local b = project:createArtboard(2, 2)
        count = #project:artboards()
        layers = #project:visualLayers()
    end }
end
`)
	reg, l := loadAll(t, root)

	p, _, ed := newBoard(t)
	if err := reg.RunProject(context.Background(), history.New(5), "Count", p, ed); err != nil {
		t.Fatal(err)
	}
	var sc *Script
	for _, s := range l.Scripts() {
		sc = s
	}
	if got := sc.state.Global("count"); got.String() != "2" {
		t.Errorf("count = %v, want 2", got)
	}
	if got := sc.state.Global("layers"); got.String() != "1" {
		t.Errorf("layers = %v, want 1", got)
	}
}

func TestSimpleBrushScript(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "simple brushes", "Dot.lua", dotScript)
	reg, _ := loadAll(t, root)

	s, err := reg.Brush("Dot")
	if err != nil {
		t.Fatal(err)
	}
	if s.Meta.Tooltip != "Paints one pixel" || s.Meta.Kind != brush.Simple {
		t.Errorf("Meta = %+v", s.Meta)
	}

	_, ab, ed := newBoard(t)
	stack := history.New(10)
	d, err := reg.NewDriver("Dot", stack)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if used, err := d.Frame(ctx, ab, ed, 1, 1); used || err != nil {
		t.Fatalf("Frame() without press = %v, %v", used, err)
	}
	ed.Press(editor.ArtboardInteract)
	used, err := d.Frame(ctx, ab, ed, 1, 1)
	if err != nil || !used {
		t.Fatalf("Frame() = %v, %v", used, err)
	}
	if !ab.ColorAt(1, 1).Equal(ed.SelectedColor()) {
		t.Error("pixel not painted")
	}
	if used, _ := d.Frame(ctx, ab, ed, 1, 1); used {
		t.Error("brush reapplied to a matching pixel")
	}

	if err := stack.Undo(ctx); err != nil {
		t.Fatal(err)
	}
	if ab.LayerPixel(1, 1) != nil {
		t.Error("undo left the pixel set")
	}
	if err := stack.Redo(ctx); err != nil {
		t.Fatal(err)
	}
	if !ab.ColorAt(1, 1).Equal(ed.SelectedColor()) {
		t.Error("redo did not repaint")
	}
}

func TestSelectingBrushScript(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "selecting brushes", "Box.lua", boxScript)
	reg, _ := loadAll(t, root)

	_, ab, ed := newBoard(t)
	d, err := reg.NewDriver("Box", history.New(5))
	if err != nil {
		t.Fatal(err)
	}
	sel, ok := d.Brush().(brush.Selector)
	if !ok {
		t.Fatalf("brush %T is not a selector", d.Brush())
	}
	if brush.KindOf(d.Brush()) != brush.Selecting {
		t.Error("KindOf() != Selecting")
	}

	ed.Press(editor.MoveSelectionArea)
	ed.SetCursor(50, 60)
	if used, err := d.Frame(context.Background(), ab, ed, 0, 0); used || err != nil {
		t.Fatalf("Frame() = %v, %v", used, err)
	}
	if b := sel.Selection(); b.LX() != 50 || b.BY() != 60 {
		t.Errorf("selection = %+v, want corner moved to (50, 60)", b.Bounds())
	}
}

func TestModifyingBrushRadius(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "modifying brushes", "Wide.lua", `
isRenderEvent = true
function Wide(brush)
    brush.radius:set(3)
    return {
        canUse = function() return false end,
        use = function() return nil end,
    }
end
`)
	reg, _ := loadAll(t, root)

	d, err := reg.NewDriver("Wide", history.New(5))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := d.Brush().(brush.Modifier)
	if !ok || m.Radius().Get() != 3 {
		t.Fatalf("brush %T radius not set by script", d.Brush())
	}

	d, err = reg.NewDriver("Wide", history.New(5), scripts.WithRadius(5))
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Brush().(brush.Modifier).Radius().Get(); got != 5 {
		t.Errorf("Radius() = %d, want 5", got)
	}
}

func TestPaletteScript(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "palettes", "Grays.lua", graysScript)
	reg, _ := loadAll(t, root)

	s, err := reg.Palette("Grays")
	if err != nil {
		t.Fatal(err)
	}
	if s.InitialValueScale != 4 {
		t.Errorf("InitialValueScale = %d", s.InitialValueScale)
	}
	g, err := s.New(s.InitialValueScale)
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.Generate(pixel.RGBA(4, 200, 0, 0, 255), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[3].R != 200 || got[1].R != 100 {
		t.Errorf("Generate() = %v", got)
	}
	if got[0].A != pixel.Full {
		t.Errorf("alpha of a 3-channel slot = %d, want Full", got[0].A)
	}

	if err := g.SetValueScale(2); err != nil {
		t.Fatal(err)
	}
	if got := g.Get(); len(got) != 2 || got[1].R != 100 {
		t.Errorf("Get() after resize = %v", got)
	}
	if got, _ := g.Generate(pixel.RGBA(4, 200, 0, 0, 255), 4); got[1].R != 200 {
		t.Errorf("Generate() at scale 2 = %v", got)
	}
}

func TestPaletteWrongLength(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "palettes", "Short.lua", `
function Short()
    return { generate = function() return { {1, 2, 3, 4} } end }
end
`)
	reg, _ := loadAll(t, root)

	s, err := reg.Palette("Short")
	if err != nil {
		t.Fatal(err)
	}
	g, err := s.New(3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(pixel.MustColor(4), 4); !errors.Is(err, ErrBadReturn) {
		t.Errorf("Generate() error = %v, want ErrBadReturn", err)
	}
}

func TestReload(t *testing.T) {
	root := t.TempDir()
	path := writeScript(t, root, "artboards", "Fill.lua", fillScript)
	reg, l := loadAll(t, root)

	old := l.Scripts()[path]
	writeScript(t, root, "artboards", "Fill.lua", "isRenderEvent = false\nisTransientEvent = true\nfunction Fill() return { _do = function() end } end")
	if err := l.Load(path); err != nil {
		t.Fatal(err)
	}
	if !old.state.IsClosed() {
		t.Error("old state left open")
	}
	s, err := reg.Artboard("Fill")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Meta.IsTransientEvent {
		t.Error("reloaded flags not registered")
	}

	if !l.Remove(path) {
		t.Error("Remove() = false")
	}
	if _, err := reg.Artboard("Fill"); !errors.Is(err, scripts.ErrNotFound) {
		t.Errorf("Artboard() after Remove error = %v", err)
	}
}

func TestLoadOutsideKindFolder(t *testing.T) {
	root := t.TempDir()
	path := writeScript(t, root, "workshop", "X.lua", fillScript)
	l := NewLoader(root, scripts.NewRegistry(), nil)
	if err := l.Load(path); !errors.Is(err, ErrUnknownFolder) {
		t.Errorf("Load() error = %v", err)
	}
}

func TestIsScript(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"artboards/Fill.lua", true},
		{"artboards/__example.lua", false},
		{"artboards/Fill.py", false},
		{"Fill.lua~", false},
	}
	for _, tt := range tests {
		if got := IsScript(tt.path); got != tt.want {
			t.Errorf("IsScript(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIncludeExamples(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "artboards", "__Example.lua", "isRenderEvent = false\nisTransientEvent = true\nfunction __Example() return { _do = function() end } end")
	reg := scripts.NewRegistry()
	l := NewLoader(root, reg, nil)
	defer l.Close()

	if n, err := l.LoadAll(); n != 0 || err != nil {
		t.Fatalf("LoadAll() = %d, %v; want examples skipped", n, err)
	}
	l.IncludeExamples(true)
	if n, err := l.LoadAll(); n != 1 || err != nil {
		t.Fatalf("LoadAll() with examples = %d, %v", n, err)
	}
	if _, err := reg.Artboard("__Example"); err != nil {
		t.Error(err)
	}
}

const rawExportScript = `
extension = "bin"

function export(path, buffer, width, height, channels)
    local out = {}
    while buffer:hasRemaining() do
        out[#out + 1] = string.char(buffer:get())
    end
    return table.concat(out)
end
`

func TestExporterScript(t *testing.T) {
	root := t.TempDir()
	path := writeScript(t, root, "exporters", "ExportRaw.lua", rawExportScript)
	reg, l := loadAll(t, root)

	if got := reg.Names(scripts.Exporters); len(got) != 1 || got[0] != "ExportRaw" {
		t.Fatalf("Names(Exporters) = %v", got)
	}
	e := reg.Exporters()[0]
	if e.Extension() != ".bin" {
		t.Errorf("Extension() = %q, want .bin", e.Extension())
	}

	_, ab, _ := newBoard(t)
	if err := ab.PutColorInImage(0, 0, 1, 1, pixel.RGBA(4, 1, 2, 3, 4)); err != nil {
		t.Fatal(err)
	}
	buf := export.FromBoard(ab)
	out := filepath.Join(t.TempDir(), "board.bin")
	if err := e.Export(out, buf, ab.Width(), ab.Height(), ab.ActiveLayerChannels()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, buf.Bytes()) {
		t.Errorf("file holds %d bytes, want the %d buffer bytes", len(got), buf.Len())
	}
	if !bytes.Equal(got[:4], []byte{1, 2, 3, 4}) {
		t.Errorf("first pixel = %v", got[:4])
	}
	if buf.Position() != 0 {
		t.Errorf("Position() = %d after export, want 0", buf.Position())
	}

	if !l.Remove(path) || len(reg.Exporters()) != 0 {
		t.Error("Remove() left the exporter registered")
	}
}

func TestExporterScriptErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		badReturn bool
	}{
		{"wrong return", "function export() return 42 end", true},
		{"bad position", "function export(path, buffer) buffer:position(99) end", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeScript(t, root, "exporters", "Broken.lua", tt.src)
			reg, _ := loadAll(t, root)

			buf := export.NewPixelBuffer([]byte{1, 2, 3, 4})
			_ = buf.SetPosition(2)
			err := reg.Exporters()[0].Export(filepath.Join(t.TempDir(), "x.broken"), buf, 1, 1, 4)
			var ee *export.ExportError
			if !errors.As(err, &ee) || ee.Format != "Broken" {
				t.Fatalf("Export() error = %v, want ExportError", err)
			}
			if tt.badReturn && !errors.Is(err, ErrBadReturn) {
				t.Errorf("Export() error = %v, want ErrBadReturn", err)
			}
			if buf.Position() != 0 {
				t.Errorf("Position() = %d after failure, want 0", buf.Position())
			}
		})
	}
}

func TestExporterWithoutExportFunction(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "exporters", "Empty.lua", "function Empty() end")
	l := NewLoader(root, scripts.NewRegistry(), nil)
	defer l.Close()
	if _, err := l.LoadAll(); !errors.Is(err, ErrNoEntry) {
		t.Errorf("LoadAll() error = %v, want ErrNoEntry", err)
	}
}
