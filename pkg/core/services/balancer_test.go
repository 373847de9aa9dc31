package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/services"
)

func TestGreedyBalancerPartitionCorrectness(t *testing.T) {
	// 10 颗 2S5P: 每颗电芯恰好出现一次，每组恰好 5 颗
	cells := make([]domain.Cell, 0, 10)
	for i := 0; i < 10; i++ {
		cells = append(cells, domain.Cell{
			ID:         fmt.Sprintf("C%02d", i+1),
			Resistance: float64(10+i) / 1000,
		})
	}

	bal := services.NewGreedyBalancer()
	modules, err := bal.Balance(cells, 2, 5)
	require.NoError(t, err)
	require.Len(t, modules, 2)

	seen := map[string]int{}
	for _, m := range modules {
		assert.Len(t, m.Members, 5, "module %d", m.Index)
		for _, c := range m.Members {
			seen[c.ID]++
		}
	}
	require.Len(t, seen, 10)
	for id, n := range seen {
		assert.Equal(t, 1, n, "cell %s assigned %d times", id, n)
	}
}

func TestGreedyBalancerKnownAssignment(t *testing.T) {
	// 手算小例: R = 1,2,3,4 Ohm, 2S2P
	// 电导降序: R1(g=1), R2(0.5), R3(0.333), R4(0.25)
	// R1 -> M1; R2 -> M2 (0 < 1); R3 -> M2 (0.5 < 1); M2 满; R4 -> M1
	// M1 = {R1,R4}: 2/(1+0.25) = 1.6; M2 = {R2,R3}: 2/(0.5+1/3)
	cells := []domain.Cell{
		{ID: "R1", Resistance: 1},
		{ID: "R2", Resistance: 2},
		{ID: "R3", Resistance: 3},
		{ID: "R4", Resistance: 4},
	}

	bal := services.NewGreedyBalancer()
	modules, err := bal.Balance(cells, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"R1", "R4"}, modules[0].MemberIDs())
	assert.Equal(t, []string{"R2", "R3"}, modules[1].MemberIDs())
	assert.InDelta(t, 1.6, modules[0].CombinedResistance, 1e-12)
	assert.InDelta(t, 2.4, modules[1].CombinedResistance, 1e-12)
}

func TestGreedyBalancerIdenticalCells(t *testing.T) {
	// Scenario C: 全部同阻 r -> 每组合成电阻恰为 r/parallel，极差为零
	const r = 0.015
	cells := make([]domain.Cell, 0, 12)
	for i := 0; i < 12; i++ {
		cells = append(cells, domain.Cell{ID: fmt.Sprintf("C%02d", i+1), Resistance: r})
	}

	bal := services.NewGreedyBalancer()
	modules, err := bal.Balance(cells, 3, 4)
	require.NoError(t, err)

	for _, m := range modules {
		assert.InDelta(t, r/4, m.CombinedResistance, 1e-15, "module %d", m.Index)
	}

	stats, err := domain.Summarize(modules)
	require.NoError(t, err)
	assert.InDelta(t, 0, stats.Spread, 1e-15)
	assert.InDelta(t, 0, stats.SpreadPercent, 1e-12)
}

func TestGreedyBalancerShapeMismatch(t *testing.T) {
	cells := []domain.Cell{
		{ID: "A", Resistance: 0.010},
		{ID: "B", Resistance: 0.011},
		{ID: "C", Resistance: 0.012},
	}

	bal := services.NewGreedyBalancer()
	_, err := bal.Balance(cells, 2, 2)
	require.Error(t, err)

	var mismatch *domain.ShapeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 4, mismatch.Expected)
	assert.Equal(t, 3, mismatch.Actual)
}

func TestGreedyBalancerInvalidParameters(t *testing.T) {
	cells := []domain.Cell{{ID: "A", Resistance: 0.010}}
	bal := services.NewGreedyBalancer()

	cases := []struct {
		name             string
		series, parallel int
		param            string
	}{
		{"zero series", 0, 1, "series"},
		{"negative series", -1, 1, "series"},
		{"zero parallel", 1, 0, "parallel"},
		{"negative parallel", 1, -2, "parallel"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bal.Balance(cells, tc.series, tc.parallel)
			var invalid *domain.InvalidParameterError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.param, invalid.Name)
		})
	}
}

func TestGreedyBalancerModuleInvariants(t *testing.T) {
	cells := scenarioCells()[:10]

	bal := services.NewGreedyBalancer()
	modules, err := bal.Balance(cells, 5, 2)
	require.NoError(t, err)

	for i, m := range modules {
		// 1-based 连续序号
		assert.Equal(t, i+1, m.Index)
		// 成员按 ID 升序
		for j := 1; j < len(m.Members); j++ {
			assert.Less(t, m.Members[j-1].ID, m.Members[j].ID)
		}
		// 合成电阻等价于标准并联公式
		var g float64
		for _, c := range m.Members {
			g += 1 / c.Resistance
		}
		assert.InDelta(t, 2/g, m.CombinedResistance, 1e-15)
	}
}

func TestGreedyBalancerDeterminism(t *testing.T) {
	cells := scenarioCells()[:10]
	bal := services.NewGreedyBalancer()

	first, err := bal.Balance(cells, 2, 5)
	require.NoError(t, err)
	second, err := bal.Balance(cells, 2, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
