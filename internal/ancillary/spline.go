package ancillary

// cubicSpline is a natural cubic spline through strictly ascending knots.
// The angular response correction integral needs continuous evaluation
// between the tabulated angles, so the ARF provider fits one of these at
// load time.
type cubicSpline struct {
	xs []float64
	ys []float64
	m  []float64 // second derivatives at the knots
}

// newCubicSpline fits a natural cubic spline. xs must be strictly
// ascending and len(xs) == len(ys) >= 2.
func newCubicSpline(xs, ys []float64) *cubicSpline {
	n := len(xs)
	s := &cubicSpline{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		m:  make([]float64, n),
	}
	if n < 3 {
		return s // two knots degenerate to a line, m stays zero
	}

	// Tridiagonal solve for the second derivatives, natural boundary
	// conditions (m[0] = m[n-1] = 0).
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	d := make([]float64, n)
	b[0], b[n-1] = 1, 1
	for i := 1; i < n-1; i++ {
		h0 := xs[i] - xs[i-1]
		h1 := xs[i+1] - xs[i]
		a[i] = h0
		b[i] = 2 * (h0 + h1)
		c[i] = h1
		d[i] = 6 * ((ys[i+1]-ys[i])/h1 - (ys[i]-ys[i-1])/h0)
	}
	for i := 1; i < n; i++ {
		w := a[i] / b[i-1]
		b[i] -= w * c[i-1]
		d[i] -= w * d[i-1]
	}
	s.m[n-1] = d[n-1] / b[n-1]
	for i := n - 2; i >= 0; i-- {
		s.m[i] = (d[i] - c[i]*s.m[i+1]) / b[i]
	}
	return s
}

// at evaluates the spline, clamping queries outside the knot range to the
// endpoint values.
func (s *cubicSpline) at(x float64) float64 {
	n := len(s.xs)
	if x <= s.xs[0] {
		return s.ys[0]
	}
	if x >= s.xs[n-1] {
		return s.ys[n-1]
	}

	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if s.xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}

	h := s.xs[hi] - s.xs[lo]
	t := (s.xs[hi] - x) / h
	u := (x - s.xs[lo]) / h
	return t*s.ys[lo] + u*s.ys[hi] +
		((t*t*t-t)*s.m[lo]+(u*u*u-u)*s.m[hi])*h*h/6
}
