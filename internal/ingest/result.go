package ingest

// Result is the (passes, failures) pair every import call returns (spec
// 4.H). Zero value is (0,0).
type Result struct {
	Passes   int
	Failures int
}

// Add returns the elementwise sum of r and other.
func (r Result) Add(other Result) Result {
	return Result{Passes: r.Passes + other.Passes, Failures: r.Failures + other.Failures}
}
