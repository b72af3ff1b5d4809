package bytesource

// Span is a closed-open range [Start, End) of logical stream offsets.
type Span struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int64 {
	return s.End - s.Start
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Intersect returns the overlap of a and b. The second result is false when
// the spans do not overlap; touching spans ([0,4) and [4,8)) do not overlap.
func Intersect(a, b Span) (Span, bool) {
	if a.End <= b.Start || b.End <= a.Start {
		return Span{}, false
	}
	return Span{Start: max(a.Start, b.Start), End: min(a.End, b.End)}, true
}
