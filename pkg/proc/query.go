package proc

// Some kernel queries return variable-length data with no size known up
// front. querySized runs them in two phases: probe asks the kernel how
// much storage the query needs, then fetch re-issues the query into a
// buffer of that size.
//
// A probe reporting zero is not treated as "no data": some information
// classes return success-with-zero here, so the buffer falls back to a
// generous default instead. Very large results can still truncate if
// both the probe and the fallback are insufficient; that is an accepted
// bound.

const defaultQueryBufferSize = 65536

func querySized(probe func() uint32, fetch func(buf []byte) error) ([]byte, error) {
	size := probe()
	if size == 0 {
		size = defaultQueryBufferSize
	}
	buf := make([]byte, size)
	if err := fetch(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
