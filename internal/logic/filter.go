package logic

// DefaultAlpha is the smoothing factor of the temperature filter.
const DefaultAlpha float32 = 0.1

// Estimate is a filtered value together with its initialization flag.
// A genuine 0.0 reading after the first sample is a valid value, not a reset.
type Estimate struct {
	Value       float32
	Initialized bool
}

// Filter is an exponential moving average over raw samples.
type Filter struct {
	Alpha float32
}

// Update folds raw into est. The first sample is taken as-is.
// Raw values are not range checked: a NaN propagates into the estimate.
func (f Filter) Update(raw float32, est *Estimate) {
	if !est.Initialized {
		est.Value = raw
		est.Initialized = true
		return
	}
	est.Value = raw*f.Alpha + est.Value*(1-f.Alpha)
}
