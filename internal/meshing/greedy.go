package meshing

// Cell is any byte-sized block id; zero is empty.
type Cell interface{ ~uint8 }

// Greedy merges the non-empty cells of a dense grid into boxes of uniform
// type. cells is indexed x + z*sx + y*sx*sz.
//
// Scan order is y, then z, then x (fastest). From each unvisited cell the
// box grows along x, then z, then y, each step only while every new cell
// has the same type and is unvisited. The result is deterministic for a
// given grid; every non-empty cell lies in exactly one box.
func Greedy[T Cell](cells []T, sx, sy, sz int) *Mesh {
	if len(cells) < sx*sy*sz {
		return &Mesh{}
	}
	layer := sx * sz
	visited := make([]bool, sx*sy*sz)
	var buckets [256][]Box

	idx := func(x, y, z int) int { return x + z*sx + y*layer }
	free := func(i int, t T) bool { return !visited[i] && cells[i] == t }

	for y := 0; y < sy; y++ {
		for z := 0; z < sz; z++ {
			for x := 0; x < sx; x++ {
				i := idx(x, y, z)
				t := cells[i]
				if t == 0 || visited[i] {
					continue
				}

				w := 1
				for x+w < sx && free(idx(x+w, y, z), t) {
					w++
				}

				d := 1
			growZ:
				for z+d < sz {
					for dx := 0; dx < w; dx++ {
						if !free(idx(x+dx, y, z+d), t) {
							break growZ
						}
					}
					d++
				}

				h := 1
			growY:
				for y+h < sy {
					for dz := 0; dz < d; dz++ {
						for dx := 0; dx < w; dx++ {
							if !free(idx(x+dx, y+h, z+dz), t) {
								break growY
							}
						}
					}
					h++
				}

				for dy := 0; dy < h; dy++ {
					for dz := 0; dz < d; dz++ {
						for dx := 0; dx < w; dx++ {
							visited[idx(x+dx, y+dy, z+dz)] = true
						}
					}
				}
				buckets[t] = append(buckets[t], Box{
					Type: uint8(t),
					Min:  [3]int{x, y, z},
					Size: [3]int{w, h, d},
				})
			}
		}
	}

	m := &Mesh{}
	for t := range buckets {
		if len(buckets[t]) > 0 {
			m.Surfaces = append(m.Surfaces, Surface{Type: uint8(t), Boxes: buckets[t]})
		}
	}
	return m
}
