package hostapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath_AppendDoesNotShareStorage(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "windows"

	left := base.Append("create")
	right := base.Append("remove")

	assert.Equal(t, Path{"windows"}, base)
	assert.Equal(t, Path{"windows", "create"}, left)
	assert.Equal(t, Path{"windows", "remove"}, right)
}

func TestPath_Key(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single", path: Path{"tabs"}, want: "tabs"},
		{name: "two levels", path: Path{"tabs", "get"}, want: "tabs_get"},
		{name: "three levels", path: Path{"windows", "onCreated", "addListener"}, want: "windows_onCreated_addListener"},
		{name: "case preserved", path: Path{"Tabs", "GET"}, want: "Tabs_GET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.Key())
			assert.Equal(t, tt.want, FlattenKey(tt.path...))
		})
	}
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, Path{"windows", "onCreated", "addListener"}, ParsePath("windows.onCreated.addListener"))
	assert.Equal(t, Path{"tabs"}, ParsePath(" tabs "))
	assert.Nil(t, ParsePath(""))
	assert.Equal(t, "tabs.get", ParsePath("tabs.get").String())
}

func TestPath_Ambiguous(t *testing.T) {
	assert.False(t, Path{"windows", "onCreated"}.Ambiguous())
	assert.True(t, Path{"a", "on_Created", "b"}.Ambiguous())
}

func TestCollisions(t *testing.T) {
	paths := []Path{
		{"a", "on_Created", "b"},
		{"a", "on", "Created", "b"},
		{"tabs", "get"},
	}

	got := Collisions(paths)

	assert.Len(t, got, 1)
	assert.Equal(t, []Path{
		{"a", "on", "Created", "b"},
		{"a", "on_Created", "b"},
	}, got["a_on_Created_b"])
}
