package video_test

import (
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/nvtracker/pkg/video"
)

func TestResolveBackend(t *testing.T) {
	is := is.New(t)

	for name, want := range map[string]string{
		"mock":   "mock",
		" MOCK ": "mock",
		"opencv": "opencv",
		"":       "opencv",
	} {
		b, err := video.ResolveBackend(name)
		is.NoErr(err)
		is.Equal(b.Name(), want)
	}
}

func TestResolveUnknownBackendFails(t *testing.T) {
	is := is.New(t)

	b, err := video.ResolveBackend("directshow")
	is.True(b == nil)
	is.True(err != nil)
}
