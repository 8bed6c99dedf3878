package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_Value(t *testing.T) {
	var empty JSONMap
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = JSONMap{"ip": "10.0.0.1"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"10.0.0.1"}`, string(v.([]byte)))
}

func TestJSONMap_Scan(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    JSONMap
		wantErr bool
	}{
		{name: "nil", in: nil, want: JSONMap{}},
		{name: "bytes", in: []byte(`{"ip":"1.1.1.1"}`), want: JSONMap{"ip": "1.1.1.1"}},
		{name: "string", in: `{"user_agent":"curl"}`, want: JSONMap{"user_agent": "curl"}},
		{name: "map", in: map[string]any{"a": "b"}, want: JSONMap{"a": "b"}},
		{name: "bad json", in: []byte(`{`), wantErr: true},
		{name: "bad type", in: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got JSONMap
			err := got.Scan(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONMap_CloneAndGet(t *testing.T) {
	src := JSONMap{"ip": "10.0.0.1", "n": 1.0}

	c := src.Clone()
	c["ip"] = "changed"

	assert.Equal(t, "10.0.0.1", src.GetString("ip"))
	assert.Equal(t, "", src.GetString("n"))
}
