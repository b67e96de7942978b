package zfixture_test

import (
	"testing"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/zheap/pkg/zfixture"
)

func TestBalanceRoundTrip(t *testing.T) {
	want, err := decimal.Parse("123.45")
	require.NoError(t, err)

	payload := zfixture.EncodeBalance(want)
	got, ok := zfixture.DecodeBalance(payload)
	require.True(t, ok)
	require.Equal(t, want.String(), got.String())
}

func TestDecodeBalanceRejectsGarbage(t *testing.T) {
	_, ok := zfixture.DecodeBalance([]byte("not-a-number"))
	require.False(t, ok)
}
