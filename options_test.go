package mptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionsDefaults(t *testing.T) {
	o, err := NewOptions("pages", "id", "parent_id")
	require.NoError(t, err)

	assert.Equal(t, "mp_path", o.PathColumn)
	assert.Equal(t, "mp_depth", o.DepthColumn)
	assert.Equal(t, "mp_tree_id", o.TreeIDColumn)
	assert.Equal(t, 3, o.StepLen)
	assert.Equal(t, 255, o.PathLen)
	assert.Equal(t, int64(46656), o.MaxChildren())
	assert.Equal(t, 86, o.MaxDepth())
	assert.Equal(t, "pages__mp_tree_id__mp_path", o.PathIndexName())
}

func TestNewOptionsOverrides(t *testing.T) {
	o, err := NewOptions("pages", "pk", "parent",
		WithPathColumn("p"),
		WithDepthColumn("d"),
		WithTreeIDColumn("t"),
		WithStepLen(2),
		WithPathLen(10),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(1296), o.MaxChildren())
	assert.Equal(t, 6, o.MaxDepth())
}

func TestNewOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		run  func() (*Options, error)
	}{
		{"bad table name", func() (*Options, error) {
			return NewOptions("pages; DROP", "id", "parent_id")
		}},
		{"bad column name", func() (*Options, error) {
			return NewOptions("pages", "id", "parent_id", WithPathColumn("mp path"))
		}},
		{"empty column name", func() (*Options, error) {
			return NewOptions("pages", "", "parent_id")
		}},
		{"column role collision", func() (*Options, error) {
			return NewOptions("pages", "id", "parent_id", WithDepthColumn("MP_PATH"))
		}},
		{"zero steplen", func() (*Options, error) {
			return NewOptions("pages", "id", "parent_id", WithStepLen(0))
		}},
		{"pathlen below one segment", func() (*Options, error) {
			return NewOptions("pages", "id", "parent_id", WithStepLen(4), WithPathLen(3))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.run()
			assert.Error(t, err)
		})
	}
}
