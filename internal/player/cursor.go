package player

import "fmt"

// Cursor is the playback position. Indices are zero-based. A Chapter index at
// or past the chapter count means the story is over.
type Cursor struct {
	Chapter int
	Scene   int
	Event   int
}

// Compare orders cursors lexicographically: -1, 0 or +1.
func (c Cursor) Compare(o Cursor) int {
	switch {
	case c.Chapter != o.Chapter:
		return sign(c.Chapter - o.Chapter)
	case c.Scene != o.Scene:
		return sign(c.Scene - o.Scene)
	default:
		return sign(c.Event - o.Event)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// String uses 1-based positions, as shown to authors.
func (c Cursor) String() string {
	return fmt.Sprintf("chapter %d, scene %d, event %d", c.Chapter+1, c.Scene+1, c.Event+1)
}
