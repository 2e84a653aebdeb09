package heightfield

// DiamondSquare runs one diamond pass and one square pass at the given offset on a
// row-major buffer with the given stride, then recurses with offset/2 until the
// midpoint distance drops below one sample.
//
// Neighbours outside [0, div] contribute zero to the average. Each written sample
// is perturbed by a uniform value in [-offset*roughness, +offset*roughness].
func DiamondSquare(cells []float64, stride, div, offset int, src Source, roughness float64) {
	mid := offset / 2
	if mid < 1 {
		return
	}

	sample := func(row, col int) float64 {
		if row < 0 || col < 0 || row > div || col > div {
			return 0
		}
		return cells[row*stride+col]
	}
	amplitude := roughness * float64(offset)
	perturb := func() float64 {
		return (src.Float64()*2 - 1) * amplitude
	}

	// Diamond step: centres of each offset-sized square
	for row := mid; row < div; row += offset {
		for col := mid; col < div; col += offset {
			ul := sample(row-mid, col-mid)
			ur := sample(row-mid, col+mid)
			ll := sample(row+mid, col-mid)
			lr := sample(row+mid, col+mid)
			cells[row*stride+col] = (ll+lr+ur+ul)/4 + perturb()
		}
	}

	// Square step: edge midpoints between the diamond centres
	for row := 0; row <= div; row += mid {
		for col := (row + mid) % offset; col <= div; col += offset {
			t := sample(row-mid, col)
			r := sample(row, col+mid)
			b := sample(row+mid, col)
			l := sample(row, col-mid)
			cells[row*stride+col] = (t+r+b+l)/4 + perturb()
		}
	}

	DiamondSquare(cells, stride, div, mid, src, roughness)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
