package testutil

import (
	"hash"
	"reflect"
	"testing"
)

var (
	_ hash.Hash = &MockHasher{}
	_ hash.Hash = &MockHasherReverse{}
)

func TestMockHasherReverse_Sum(t *testing.T) {
	tests := []struct {
		name  string
		write []byte
		want  []byte
	}{
		{name: "simple reverse", write: []byte("foo"), want: []byte("oof")},
		{name: "empty", write: []byte{}, want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MockHasherReverse{}
			_, _ = s.Write(tt.write)

			if got := s.Sum([]byte{}); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMockHasher_Sum(t *testing.T) {
	tests := []struct {
		name  string
		write []string
		want  []byte
	}{
		{name: "identical output", write: []string{"foo"}, want: []byte("foo")},
		{name: "appended writes", write: []string{"foo", "bar"}, want: []byte("foobar")},
		{name: "empty", write: nil, want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MockHasher{}
			for _, w := range tt.write {
				_, _ = s.Write([]byte(w))
			}

			if got := s.Sum([]byte{}); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMockHasher_Reset(t *testing.T) {
	s := &MockHasher{}
	_, _ = s.Write([]byte("foo"))
	s.Reset()
	_, _ = s.Write([]byte("bar"))

	if got := string(s.Sum(nil)); got != "bar" {
		t.Errorf("Sum() after Reset() = %q, want %q", got, "bar")
	}
}
