package route

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{
			name:     "two path values with spaces stay unescaped",
			template: "/v1/network/regions/{regionName}/markets/{marketName}/sites",
			data:     map[string]any{"regionName": "Cruzio Internet", "marketName": "South Santa Cruz"},
			want:     "/v1/network/regions/Cruzio Internet/markets/South Santa Cruz/sites",
		},
		{
			name:     "integer and bool values",
			template: "/items/{id}/flags/{on}",
			data:     map[string]any{"id": 42, "on": true},
			want:     "/items/42/flags/true",
		},
		{
			name:     "float and json number",
			template: "/a/{f}/b/{n}",
			data:     map[string]any{"f": 2.5, "n": json.Number("12345678901234567890")},
			want:     "/a/2.5/b/12345678901234567890",
		},
		{
			name:     "whole float prints without decimals",
			template: "/a/{f}",
			data:     map[string]any{"f": float64(7)},
			want:     "/a/7",
		},
		{
			name:     "repeated placeholder",
			template: "/{id}/copy/{id}",
			data:     map[string]any{"id": "x"},
			want:     "/x/copy/x",
		},
		{
			name:     "keys without placeholder ignored",
			template: "/devices",
			data:     map[string]any{"type": "olt"},
			want:     "/devices",
		},
		{
			name:     "missing value leaves placeholder",
			template: "/items/{id}",
			data:     map[string]any{"other": 1},
			want:     "/items/{id}",
		},
		{
			name:     "substituted text is not rescanned",
			template: "/{a}/{b}",
			data:     map[string]any{"a": "{b}", "b": "z"},
			want:     "/{b}/z",
		},
		{
			name:     "nil value becomes empty",
			template: "/items/{id}",
			data:     map[string]any{"id": nil},
			want:     "/items/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPath(tt.template, tt.data))
		})
	}
}

func TestBuildPath_Escaped(t *testing.T) {
	got := BuildPath("/files/{name}", map[string]any{"name": "a b/c?d"}, WithEscapedValues(true))
	assert.Equal(t, "/files/a%20b%2Fc%3Fd", got)
}

func TestBuildPath_ResolvesAllDeclaredPlaceholders(t *testing.T) {
	template := "/orgs/{org}/repos/{repo}/issues/{number}"
	data := map[string]any{}
	for _, name := range Placeholders(template) {
		data[name] = "v-" + name
	}
	built := BuildPath(template, data)
	assert.Empty(t, Unresolved(built))
	assert.Equal(t, "/orgs/v-org/repos/v-repo/issues/v-number", built)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Placeholders("/{a}/x/{b}/{a}"))
	assert.Nil(t, Placeholders("/plain"))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "false", Stringify(false))
	assert.Equal(t, "-3", Stringify(int64(-3)))
	assert.Equal(t, "8", Stringify(uint8(8)))
	assert.Equal(t, "[1 2]", Stringify([]int{1, 2}))
}
