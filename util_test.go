package sdspi

import "testing"

func TestBlocksForBytes(t *testing.T) {
	cases := []struct {
		n    uint32
		want uint32
	}{
		{0, 0},
		{1, 1},
		{512, 1},
		{513, 2},
		{1024, 2},
		{1025, 3},
	}
	for _, c := range cases {
		if got := BlocksForBytes(c.n); got != c.want {
			t.Errorf("BlocksForBytes(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
