package logger

import "sync/atomic"

// sampler lets keep out of every events through. A zero ratio lets
// everything through.
type sampler struct {
	keep  atomic.Int64
	every atomic.Int64
	seen  atomic.Uint64
}

func (s *sampler) Set(keep, every int) {
	if keep <= 0 || every <= 0 {
		keep, every = 0, 0
	}
	s.keep.Store(int64(min(keep, every)))
	s.every.Store(int64(every))
	s.seen.Store(0)
}

func (s *sampler) Allow() bool {
	every := s.every.Load()
	if every <= 0 {
		return true
	}
	n := s.seen.Add(1) - 1
	return int64(n%uint64(every)) < s.keep.Load()
}
