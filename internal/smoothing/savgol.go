package smoothing

// savgolFilter fits a degree-`order` polynomial over each centered window
// of `window` samples (least squares) and takes the fitted value at the
// window's own center as the smoothed output. Windows are small and fixed
// in size (<=9 samples, order<=2 in practice) so the normal-equations
// solve is done by hand with Gaussian elimination rather than pulling in
// a matrix library for a handful of 2x2/3x3 systems (see DESIGN.md).
//
// Samples closer to an edge than half the window reuse the nearest fully
// interior window's fitted polynomial, evaluated at their own offset —
// i.e. extrapolated from that window rather than fit from a truncated
// one, per spec.md §4.A.
func savgolFilter(x []float64, window, order int) []float64 {
	n := len(x)
	half := window / 2
	out := make([]float64, n)

	if n == 0 {
		return out
	}

	// Cache one polynomial fit per distinct window center so the
	// O(n) boundary reuse below doesn't refit for every edge sample.
	fits := make(map[int][]float64, n)
	fitAt := func(center int) []float64 {
		if c, ok := fits[center]; ok {
			return c
		}
		coeffs := polyfit(x, center, half, order)
		fits[center] = coeffs
		return coeffs
	}

	for i := 0; i < n; i++ {
		center := i
		offset := 0.0
		switch {
		case i < half:
			center = half
			offset = float64(i - half)
		case i >= n-half:
			center = n - 1 - half
			offset = float64(i - center)
		}
		if center < 0 {
			center = 0
		}
		if center > n-1 {
			center = n - 1
		}
		coeffs := fitAt(center)
		out[i] = evalPoly(coeffs, offset)
	}
	return out
}

// polyfit least-squares fits a degree-`order` polynomial, in the local
// offset variable u = j - center, to x[center-half : center+half+1].
// Returns coefficients a[0..order] such that p(u) = sum(a[k] * u^k).
func polyfit(x []float64, center, half, order int) []float64 {
	n := len(x)
	lo := center - half
	hi := center + half
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}

	numCoef := order + 1
	// Normal equations: (V^T V) a = V^T y
	ata := make([][]float64, numCoef)
	aty := make([]float64, numCoef)
	for i := range ata {
		ata[i] = make([]float64, numCoef)
	}

	for j := lo; j <= hi; j++ {
		u := float64(j - center)
		powers := make([]float64, numCoef)
		p := 1.0
		for k := 0; k < numCoef; k++ {
			powers[k] = p
			p *= u
		}
		for r := 0; r < numCoef; r++ {
			aty[r] += powers[r] * x[j]
			for c := 0; c < numCoef; c++ {
				ata[r][c] += powers[r] * powers[c]
			}
		}
	}

	return solveLinear(ata, aty)
}

func evalPoly(coeffs []float64, u float64) float64 {
	result := 0.0
	p := 1.0
	for _, c := range coeffs {
		result += c * p
		p *= u
	}
	return result
}

// solveLinear solves A x = b for small, well-conditioned A (order+1 <= 3
// in every caller) via Gaussian elimination with partial pivoting.
func solveLinear(a [][]float64, b []float64) []float64 {
	n := len(b)
	m := make([][]float64, n)
	for i := range a {
		row := make([]float64, n+1)
		copy(row, a[i])
		row[n] = b[i]
		m[i] = row
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(m[r][col]) > abs(m[pivot][col]) {
				pivot = r
			}
		}
		m[col], m[pivot] = m[pivot], m[col]

		if m[col][col] == 0 {
			continue // singular in this column; leave coefficient at 0
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if m[i][i] != 0 {
			out[i] = m[i][n] / m[i][i]
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
