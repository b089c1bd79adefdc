// Package entity implements connected-component labelling over a
// binary foreground mask: flood-fill discovery of entities, and an
// optional filter pass that blacks out entities failing size/mass
// rules (entitydet.h).
package entity

import (
	"fmt"

	"github.com/motdec/motiond/internal/motion"
)

// Entity is a single connected foreground component: its tag id, pixel
// mass, and bounding box. Width is MaxX-MinX+1, height is
// MaxY-MinY+1. An Entity is never mutated after flood fill completes.
type Entity struct {
	ID   byte
	Mass int
	MinX int
	MaxX int
	MinY int
	MaxY int
}

func (e Entity) Width() int  { return e.MaxX - e.MinX + 1 }
func (e Entity) Height() int { return e.MaxY - e.MinY + 1 }

// Filter restricts which entities survive FilterEntities. A field set
// to -1 means "ignore this constraint", matching init_filter's
// convention in entitydet.h.
type Filter struct {
	MinMass, MaxMass     int
	MinWidth, MaxWidth   int
	MinHeight, MaxHeight int
}

// passes reports whether e violates none of f's bounds.
func (f Filter) passes(e Entity) bool {
	return (f.MinMass == -1 || e.Mass >= f.MinMass) &&
		(f.MaxMass == -1 || e.Mass <= f.MaxMass) &&
		(f.MinWidth == -1 || e.Width() >= f.MinWidth) &&
		(f.MaxWidth == -1 || e.Width() <= f.MaxWidth) &&
		(f.MinHeight == -1 || e.Height() >= f.MinHeight) &&
		(f.MaxHeight == -1 || e.Height() <= f.MaxHeight)
}

type point struct{ x, y int }

// enqueue appends (x,y) unless it is already present in queue,
// mirroring add_point's linear duplicate check in entitydet.h.
func enqueue(queue []point, x, y int) []point {
	for _, p := range queue {
		if p.x == x && p.y == y {
			return queue
		}
	}
	return append(queue, point{x, y})
}

// floodFill walks every pixel 4-connected to (startX,startY) whose
// current colour equals target, in right/down/left/up expansion
// order, retagging each to (id,id,id) and folding it into an Entity
// accumulator seeded at the start point. It returns the finished
// Entity.
func floodFill(mask *motion.Image, id byte, startX, startY int, target motion.Pixel) Entity {
	e := Entity{ID: id, MinX: startX, MaxX: startX, MinY: startY, MaxY: startY}
	tag := motion.Pixel{Red: id, Green: id, Blue: id}

	queue := []point{{startX, startY}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		x, y := p.x, p.y

		e.Mass++
		if x < e.MinX {
			e.MinX = x
		} else if x > e.MaxX {
			e.MaxX = x
		}
		if y < e.MinY {
			e.MinY = y
		} else if y > e.MaxY {
			e.MaxY = y
		}

		mask.Set(x, y, tag)

		if x < mask.Width-1 {
			if q, _ := mask.Get(x+1, y); q == target {
				queue = enqueue(queue, x+1, y)
			}
		}
		if y < mask.Height-1 {
			if q, _ := mask.Get(x, y+1); q == target {
				queue = enqueue(queue, x, y+1)
			}
		}
		if x > 0 {
			if q, _ := mask.Get(x-1, y); q == target {
				queue = enqueue(queue, x-1, y)
			}
		}
		if y > 0 {
			if q, _ := mask.Get(x, y-1); q == target {
				queue = enqueue(queue, x, y-1)
			}
		}
	}
	return e
}

// FindEntities scans mask in row-major order and flood fills every
// unvisited foreground pixel it finds, assigning ids 1, 2, ... in
// discovery order. Every visited pixel is retagged to (id,id,id); the
// mask is mutated in place. Returns the discovered entities in
// discovery order.
func FindEntities(mask *motion.Image) ([]Entity, error) {
	var entities []Entity
	id := 1
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			p, _ := mask.Get(x, y)
			if p != motion.White {
				continue
			}
			if id > 255 {
				return nil, fmt.Errorf("entity at (%d,%d): %w", x, y, motion.ErrTooManyEntities)
			}
			e := floodFill(mask, byte(id), x, y, motion.White)
			entities = append(entities, e)
			id++
		}
	}
	return entities, nil
}

// FilterEntities behaves like FindEntities, but tests each discovered
// entity against filter immediately after labelling it. An entity that
// fails is retagged back to background (0,0,0) by a second flood fill
// seeded at its start point searching for pixels matching its own
// transient tag; it does not appear in the returned list and its id is
// given to the next entity discovered. A surviving entity keeps the
// list's next sequential id (ids are only consumed by entities that
// pass).
//
// After every pixel has been classified, if preserveTagging is false
// every surviving entity's pixels are rewritten to pure white so the
// mask becomes binary again; otherwise the per-entity grey tags remain.
func FilterEntities(mask *motion.Image, filter Filter, preserveTagging bool) ([]Entity, error) {
	var entities []Entity
	id := 1
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			p, _ := mask.Get(x, y)
			if p != motion.White {
				continue
			}
			if id > 255 {
				return nil, fmt.Errorf("entity at (%d,%d): %w", x, y, motion.ErrTooManyEntities)
			}
			e := floodFill(mask, byte(id), x, y, motion.White)
			if filter.passes(e) {
				entities = append(entities, e)
				id++
				continue
			}
			// Reseed at the original discovery point, not the
			// finished bounding box: a non-convex entity's bbox
			// min can lie outside the pixel that was actually
			// scanned first.
			blackout := motion.Pixel{Red: e.ID, Green: e.ID, Blue: e.ID}
			floodFill(mask, 0, x, y, blackout)
		}
	}

	if !preserveTagging {
		for _, e := range entities {
			tag := motion.Pixel{Red: e.ID, Green: e.ID, Blue: e.ID}
			for y := e.MinY; y <= e.MaxY; y++ {
				for x := e.MinX; x <= e.MaxX; x++ {
					if p, _ := mask.Get(x, y); p == tag {
						mask.Set(x, y, motion.White)
					}
				}
			}
		}
	}

	return entities, nil
}
