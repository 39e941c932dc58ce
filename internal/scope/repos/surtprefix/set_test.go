package surtprefix

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-scope/internal/scope/common/log"
)

func TestToPrefix(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "http://(com,example,", false},
		{"http://www.example.com/", "http://(com,example,www,)/", false},
		{"https://example.com/docs/", "http://(com,example,)/docs/", false},
		{"+http://(org,archive,", "http://(org,archive,", false},
		{"http://(IS,Vedur,)/", "http://(is,vedur,)/", false},
		{"  ", "", true},
		{"+", "", true},
		{"http://", "", true},
	}
	for _, tt := range tests {
		got, err := ToPrefix(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidPrefix), "%q: %v", tt.in, err)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSet_LongestPrefix(t *testing.T) {
	s := New(log.NewNoopLogger())
	for _, e := range []string{"example.com", "http://www.example.com/private/"} {
		_, err := s.Add(e)
		require.NoError(t, err)
	}

	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"http://example.com/", "http://(com,example,", true},
		{"http://cdn.example.com/img.png", "http://(com,example,", true},
		{"https://www.example.com/private/x", "http://(com,example,www,)/private/", true},
		{"http://www.example.com/public/", "http://(com,example,", true},
		{"http://example.org/", "", false},
		{"not a url", "", false},
	}
	for _, tt := range tests {
		got, ok := s.MatchURL(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestSet_AddIsIdempotent(t *testing.T) {
	s := New(log.NewNoopLogger())
	changed, err := s.Add("example.com")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Add("+http://(com,example,")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, s.Len())
}

func TestSet_Load(t *testing.T) {
	input := strings.Join([]string{
		"# seeds",
		"example.com",
		"",
		"+http://(org,archive,",
		"http://",
		"example.com",
		"http://www.vedur.is/",
	}, "\n")
	s := New(log.NewNoopLogger())
	added, err := s.Load(strings.NewReader(input), "prefixes.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, []string{
		"http://(com,example,",
		"http://(is,vedur,www,)/",
		"http://(org,archive,",
	}, s.Prefixes())
}
