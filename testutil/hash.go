package testutil

// MockHasherReverse "hashes" by reversing the written bytes
type MockHasherReverse struct {
	MockHasher
}

func (s *MockHasherReverse) Sum(p []byte) []byte {
	r := make([]byte, len(s.v))
	for i := range s.v {
		r[len(r)-1-i] = s.v[i]
	}

	return append(p, r...)
}

// MockHasher is a hash.Hash whose sum is the written input, which keeps keys readable in tests
type MockHasher struct {
	v []byte
}

func (s *MockHasher) Write(p []byte) (int, error) {
	s.v = append(s.v, p...)
	return len(p), nil
}

func (s *MockHasher) Sum(p []byte) []byte {
	return append(p, s.v...)
}

func (s *MockHasher) Reset() {
	s.v = s.v[:0]
}

func (s *MockHasher) Size() int {
	return len(s.v)
}

func (s *MockHasher) BlockSize() int {
	return 128
}
