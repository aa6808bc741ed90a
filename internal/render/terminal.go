package render

import (
	"strings"

	"wattsup/internal/diagram"
)

// CellKind tells the front end how to style a terminal cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellGrid
	CellWire
	CellSymbol
	CellCaption
	CellPlaceholder
	CellArmed
	CellDragging
	CellEditing
	CellCursor
	CellPointer
)

type Cell struct {
	Rune rune
	Kind CellKind
}

// Span is a run of adjacent cells of the same kind on one row.
type Span struct {
	Text string
	Kind CellKind
}

// TermOptions controls how a diagram is laid out on the cell grid. One
// terminal cell covers CellWidth x CellHeight canvas pixels.
type TermOptions struct {
	CellWidth  int
	CellHeight int
	ShowGrid   bool

	Armed    int64
	HasArmed bool
	Dragging int64
	HasDrag  bool

	Pointer     diagram.Point
	ShowPointer bool
}

const (
	DefaultCellWidth  = 10
	DefaultCellHeight = 20
)

func (o TermOptions) withDefaults() TermOptions {
	if o.CellWidth <= 0 {
		o.CellWidth = DefaultCellWidth
	}
	if o.CellHeight <= 0 {
		o.CellHeight = DefaultCellHeight
	}
	return o
}

// Surface is a rendered cell grid plus a hit map recording which element
// owns each cell. The last element drawn over a cell owns it, so hit testing
// always agrees with what the user sees.
type Surface struct {
	cols, rows int
	cw, ch     int
	cells      [][]Cell
	hits       [][]int
	ids        []int64
}

func newSurface(cols, rows int, opts TermOptions) *Surface {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	s := &Surface{
		cols:  cols,
		rows:  rows,
		cw:    opts.CellWidth,
		ch:    opts.CellHeight,
		cells: make([][]Cell, rows),
		hits:  make([][]int, rows),
	}
	for y := range s.cells {
		s.cells[y] = make([]Cell, cols)
		s.hits[y] = make([]int, cols)
		for x := range s.cells[y] {
			s.cells[y][x] = Cell{Rune: ' '}
		}
	}
	return s
}

// Terminal renders src onto a cols x rows cell grid. Wires are drawn first so
// that element symbols sit on top of them; wires with a missing endpoint are
// skipped.
func Terminal(src Source, cols, rows int, opts TermOptions) *Surface {
	opts = opts.withDefaults()
	s := newSurface(cols, rows, opts)

	if opts.ShowGrid {
		s.drawGrid(src.GridSize())
	}
	for _, w := range src.Wires() {
		start, end, ok := src.Resolve(w)
		if !ok {
			continue
		}
		fromCol, fromRow := s.CellOf(start.Pos)
		toCol, toRow := s.CellOf(end.Pos)
		s.drawWire(fromCol, fromRow, toCol, toRow)
	}
	for _, el := range src.Elements() {
		s.drawElement(el, opts)
	}
	if opts.ShowPointer {
		col, row := s.CellOf(opts.Pointer)
		if s.valid(col, row) {
			c := &s.cells[row][col]
			if c.Kind == CellEmpty || c.Kind == CellGrid {
				c.Rune = '+'
			}
			c.Kind = CellPointer
		}
	}
	return s
}

func (s *Surface) Cols() int { return s.cols }
func (s *Surface) Rows() int { return s.rows }

// Cell returns the cell at col,row. Out of range cells are empty.
func (s *Surface) Cell(col, row int) Cell {
	if !s.valid(col, row) {
		return Cell{Rune: ' '}
	}
	return s.cells[row][col]
}

// HitTest returns the element drawn at col,row. ok is false for background
// cells.
func (s *Surface) HitTest(col, row int) (id int64, ok bool) {
	if !s.valid(col, row) {
		return 0, false
	}
	k := s.hits[row][col]
	if k == 0 {
		return 0, false
	}
	return s.ids[k-1], true
}

// PixelAt converts a cell to the canvas pixel at its top-left corner.
func (s *Surface) PixelAt(col, row int) diagram.Point {
	return diagram.Point{X: col * s.cw, Y: row * s.ch}
}

// CellOf converts a canvas pixel to the cell containing it.
func (s *Surface) CellOf(p diagram.Point) (col, row int) {
	return floorDiv(p.X, s.cw), floorDiv(p.Y, s.ch)
}

// Spans groups row into runs of equal kind for styling.
func (s *Surface) Spans(row int) []Span {
	if row < 0 || row >= s.rows {
		return nil
	}
	var (
		spans []Span
		b     strings.Builder
		kind  CellKind
	)
	for x, c := range s.cells[row] {
		if x > 0 && c.Kind != kind {
			spans = append(spans, Span{Text: b.String(), Kind: kind})
			b.Reset()
		}
		kind = c.Kind
		b.WriteRune(c.Rune)
	}
	return append(spans, Span{Text: b.String(), Kind: kind})
}

// Lines returns the unstyled rows.
func (s *Surface) Lines() []string {
	lines := make([]string, s.rows)
	for y, row := range s.cells {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		lines[y] = b.String()
	}
	return lines
}

func (s *Surface) String() string {
	return strings.Join(s.Lines(), "\n")
}

func (s *Surface) valid(col, row int) bool {
	return row >= 0 && row < s.rows && col >= 0 && col < s.cols
}

func (s *Surface) set(col, row int, r rune, kind CellKind) {
	if s.valid(col, row) {
		s.cells[row][col] = Cell{Rune: r, Kind: kind}
	}
}

func (s *Surface) claim(col, row int, id int64) {
	if !s.valid(col, row) {
		return
	}
	if len(s.ids) == 0 || s.ids[len(s.ids)-1] != id {
		s.ids = append(s.ids, id)
	}
	s.hits[row][col] = len(s.ids)
}

func (s *Surface) drawGrid(grid int) {
	if grid <= 0 {
		return
	}
	for py := 0; py/s.ch < s.rows; py += grid {
		for px := 0; px/s.cw < s.cols; px += grid {
			s.set(px/s.cw, py/s.ch, '·', CellGrid)
		}
	}
}

// drawWire runs horizontally along the start row, then vertically along the
// end column.
func (s *Surface) drawWire(fromCol, fromRow, toCol, toRow int) {
	for x := min(fromCol, toCol); x <= max(fromCol, toCol); x++ {
		s.wireCell(x, fromRow, '─')
	}
	for y := min(fromRow, toRow); y <= max(fromRow, toRow); y++ {
		s.wireCell(toCol, y, '│')
	}
	if fromCol != toCol && fromRow != toRow {
		s.set(toCol, fromRow, corner(fromCol, toCol, fromRow, toRow), CellWire)
	}
}

func (s *Surface) wireCell(col, row int, r rune) {
	if !s.valid(col, row) {
		return
	}
	c := s.cells[row][col]
	if c.Kind == CellWire && c.Rune != r {
		r = '┼'
	}
	s.set(col, row, r, CellWire)
}

func corner(fromCol, cornerCol, cornerRow, toRow int) rune {
	switch {
	case fromCol < cornerCol && cornerRow < toRow:
		return '┐'
	case fromCol < cornerCol:
		return '┘'
	case cornerRow < toRow:
		return '┌'
	default:
		return '└'
	}
}

func (s *Surface) drawElement(el diagram.Element, opts TermOptions) {
	col, row := s.CellOf(el.Pos)
	text, placeholder := displayText(el)

	if el.Type == diagram.Label {
		kind := CellCaption
		switch {
		case el.Editing:
			kind = CellEditing
		case placeholder:
			kind = CellPlaceholder
		}
		x := col
		for _, r := range text {
			s.set(x, row, r, kind)
			s.claim(x, row, el.ID)
			x++
		}
		if el.Editing {
			s.set(x, row, '█', CellCursor)
			s.claim(x, row, el.ID)
		}
		return
	}

	kind := CellSymbol
	switch {
	case opts.HasArmed && opts.Armed == el.ID:
		kind = CellArmed
	case opts.HasDrag && opts.Dragging == el.ID:
		kind = CellDragging
	}
	x := col - 1
	for _, r := range Glyph(el.Type) {
		s.set(x, row, r, kind)
		s.claim(x, row, el.ID)
		x++
	}

	runes := []rune(text)
	x = col - len(runes)/2
	for _, r := range runes {
		s.set(x, row+1, r, CellCaption)
		s.claim(x, row+1, el.ID)
		x++
	}
}

// Glyph is the three-cell terminal symbol for t.
func Glyph(t diagram.ElementType) string {
	switch t {
	case diagram.Outlet:
		return "(=)"
	case diagram.USBOutlet:
		return "(u)"
	case diagram.GFCIOutlet:
		return "(G)"
	case diagram.Switch:
		return "[S]"
	case diagram.ThreeWaySwitch:
		return "[3]"
	case diagram.FourWaySwitch:
		return "[4]"
	case diagram.Light:
		return "(X)"
	case diagram.CeilingFan:
		return "(F)"
	case diagram.SmartSwitch:
		return "[*]"
	case diagram.JunctionBox:
		return "[J]"
	case diagram.Label:
		return ""
	default:
		return "[?]"
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
