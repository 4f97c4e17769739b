package trainer

import "github.com/hyperjump/glove/internal/models"

// plan splits samples so that each worker owns a contiguous range of table rows. A sample
// goes to worker k when both of its rows fall in k's range; all other samples go to cross
// and are trained after the workers finish. Workers therefore never touch the same row.
type plan struct {
	local [][]models.Cooccurrence
	cross []models.Cooccurrence
}

// owner returns the worker that owns row; rows are split into equal contiguous ranges.
func owner(row, rows, workers int) int {
	return row * workers / rows
}

func newPlan(samples []models.Cooccurrence, rows, workers int) *plan {
	if workers < 1 {
		workers = 1
	}
	if workers > rows {
		workers = rows
	}
	p := &plan{local: make([][]models.Cooccurrence, workers)}
	for _, s := range samples {
		a, b := owner(s.Word1, rows, workers), owner(s.Word2, rows, workers)
		if a == b {
			p.local[a] = append(p.local[a], s)
			continue
		}
		p.cross = append(p.cross, s)
	}
	return p
}

func (p *plan) size() int {
	n := len(p.cross)
	for _, l := range p.local {
		n += len(l)
	}
	return n
}
