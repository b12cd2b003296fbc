package outlets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumberPrefix(t *testing.T) {
	require.Equal(t, "KOP", Outlet{Code: "kop"}.NumberPrefix())
	require.Equal(t, "MAI", Outlet{Name: "Main Street Store"}.NumberPrefix())
	require.Equal(t, "ST7", Outlet{Name: "st 7 depot"}.NumberPrefix())
	require.Equal(t, "ORD", Outlet{Name: "---"}.NumberPrefix())
	require.Equal(t, "ABC", Outlet{Code: "abc", Name: "Zephyr"}.NumberPrefix())
}
