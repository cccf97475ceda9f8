package navigation

import (
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// CellSet is a set of cells; iteration and encoding always follow GridPos order
type CellSet struct {
	m map[GridPos]struct{}
}

func NewCellSet(cells ...GridPos) CellSet {
	s := CellSet{}
	for _, c := range cells {
		s.Add(c)
	}
	return s
}

func (s *CellSet) Add(c GridPos) {
	if s.m == nil {
		s.m = make(map[GridPos]struct{})
	}
	s.m[c] = struct{}{}
}

// Remove returns true if the cell was present
func (s *CellSet) Remove(c GridPos) bool {
	if _, ok := s.m[c]; !ok {
		return false
	}
	delete(s.m, c)
	return true
}

func (s CellSet) Contains(c GridPos) bool {
	_, ok := s.m[c]
	return ok
}

func (s CellSet) Len() int { return len(s.m) }

func (s *CellSet) Clear() { clear(s.m) }

// Cells returns members sorted by GridPos
func (s CellSet) Cells() []GridPos {
	out := make([]GridPos, 0, len(s.m))
	for c := range s.m {
		out = append(out, c)
	}
	slices.SortFunc(out, ComparePos)
	return out
}

func (s CellSet) Clone() CellSet {
	out := CellSet{}
	if len(s.m) > 0 {
		out.m = make(map[GridPos]struct{}, len(s.m))
		for c := range s.m {
			out.m[c] = struct{}{}
		}
	}
	return out
}

// Equal compares membership
func (s CellSet) Equal(o CellSet) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for c := range s.m {
		if _, ok := o.m[c]; !ok {
			return false
		}
	}
	return true
}

var _ msgpack.CustomEncoder = CellSet{}
var _ msgpack.CustomDecoder = (*CellSet)(nil)

// EncodeMsgpack writes a flat sorted [x0, y0, x1, y1, ...] array
func (s CellSet) EncodeMsgpack(enc *msgpack.Encoder) error {
	cells := s.Cells()
	if err := enc.EncodeArrayLen(len(cells) * 2); err != nil {
		return err
	}
	for _, c := range cells {
		if err := enc.EncodeInt32(c.X); err != nil {
			return err
		}
		if err := enc.EncodeInt32(c.Y); err != nil {
			return err
		}
	}
	return nil
}

func (s *CellSet) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	s.m = nil
	for i := 0; i+1 < n; i += 2 {
		x, err := dec.DecodeInt32()
		if err != nil {
			return err
		}
		y, err := dec.DecodeInt32()
		if err != nil {
			return err
		}
		s.Add(GridPos{X: x, Y: y})
	}
	return nil
}
