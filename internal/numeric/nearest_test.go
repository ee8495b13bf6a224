package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindNearestMeasureDayIdx(t *testing.T) {
	days := []int{0, 3, 7, 10}
	cases := []struct {
		name string
		day  int
		want int
	}{
		{"exact", 7, 2},
		{"closer to later", 9, 3},
		{"closer to earlier", 4, 1},
		{"tie favours later", 5, 2},
		{"before first", -3, 0},
		{"after last", 25, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, FindNearestMeasureDayIdx(days, c.day))
		})
	}
	assert.Equal(t, -1, FindNearestMeasureDayIdx(nil, 0))
	assert.Equal(t, 0, FindNearestMeasureDayIdx([]int{12}, 0))
}
