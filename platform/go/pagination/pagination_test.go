package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{name: "defaults", in: Params{}, want: Params{Page: 1, PageSize: 50}},
		{name: "negative", in: Params{Page: -2, PageSize: -1}, want: Params{Page: 1, PageSize: 50}},
		{name: "capped", in: Params{Page: 3, PageSize: 500}, want: Params{Page: 3, PageSize: 100}},
		{name: "kept", in: Params{Page: 2, PageSize: 20}, want: Params{Page: 2, PageSize: 20}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestNewPageAndMap(t *testing.T) {
	t.Parallel()

	page := NewPage([]int{1, 2}, 101, Params{Page: 1, PageSize: 50})
	require.Equal(t, 3, page.TotalPages)

	empty := NewPage[int](nil, 0, Params{Page: 1, PageSize: 50})
	require.NotNil(t, empty.Items)
	require.Zero(t, empty.TotalPages)

	mapped := Map(page, strconv.Itoa)
	require.Equal(t, []string{"1", "2"}, mapped.Items)
	require.Equal(t, 101, mapped.Total)
}
