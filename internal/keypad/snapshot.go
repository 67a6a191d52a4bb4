package keypad

import "time"

// KeySnapshot is a read-only copy of one key's state.
type KeySnapshot struct {
	Index             int   `json:"index"`
	Row               int   `json:"row"`
	Column            int   `json:"column"`
	Pressed           bool  `json:"pressed"`
	Blinking          bool  `json:"blinking"`
	BlinkingAlternate bool  `json:"blinking_alternate"`
	Phase             Phase `json:"phase"`
	ColorPressed      Color `json:"color_pressed"`
	ColorReleased     Color `json:"color_released"`
	ColorAlternative  Color `json:"color_alternative"`
}

// Snapshot is a point-in-time copy of the whole grid.
type Snapshot struct {
	Keys      []KeySnapshot `json:"keys"`
	Frames    uint64        `json:"frames"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot copies the grid state. It must be called by the grid's owner.
func (g *Grid) Snapshot() Snapshot {
	s := Snapshot{Keys: make([]KeySnapshot, 0, KeyCount)}
	for i := 0; i < KeyCount; i++ {
		row, col := i/Columns, i%Columns
		k := &g.keys[row][col]
		s.Keys = append(s.Keys, KeySnapshot{
			Index:             i,
			Row:               row,
			Column:            col,
			Pressed:           k.pressed,
			Blinking:          k.blinking,
			BlinkingAlternate: k.blinkingAlternate,
			Phase:             k.phase,
			ColorPressed:      k.colorPressed,
			ColorReleased:     k.colorReleased,
			ColorAlternative:  k.colorAlternative,
		})
	}
	return s
}

// Key returns the snapshot of the key at index.
func (s Snapshot) Key(index int) (KeySnapshot, bool) {
	if index < 0 || index >= len(s.Keys) {
		return KeySnapshot{}, false
	}
	return s.Keys[index], true
}
