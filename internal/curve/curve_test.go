package curve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPoints() []TempPoint {
	return []TempPoint{{20, 0}, {50, 10}, {70, 15}, {80, 20}}
}

func monotonic(t *testing.T) *Curve {
	t.Helper()
	c, err := New(defaultPoints(), Options{EnforceMonotonicDuty: true})
	require.NoError(t, err)
	return c
}

// TestNew_RejectsEmpty verifies a curve without points is refused.
func TestNew_RejectsEmpty(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidCurve)
}

// TestNew_SortsCopy verifies points are sorted without touching the input slice.
func TestNew_SortsCopy(t *testing.T) {
	in := []TempPoint{{70, 15}, {20, 0}, {50, 10}}
	c, err := New(in, Options{})
	require.NoError(t, err)

	assert.Equal(t, []TempPoint{{20, 0}, {50, 10}, {70, 15}}, c.Points())
	assert.Equal(t, 70, in[0].Temperature)
}

func TestDutyForTemperature(t *testing.T) {
	c := monotonic(t)

	tests := []struct {
		name   string
		millis int
		want   int
	}{
		{"below first point", 19999, IdleDuty},
		{"zero", 0, IdleDuty},
		{"on first point", 20000, PercentToDuty(0)},
		{"between first and second", 45000, PercentToDuty(0)},
		{"between second and third", 55000, PercentToDuty(10)},
		{"fraction truncates", 69999, PercentToDuty(10)},
		{"on third point", 70000, PercentToDuty(15)},
		{"above last point", 99000, PercentToDuty(20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.DutyForTemperature(tt.millis))
		})
	}
}

// TestDutyForTemperature_NonDecreasing verifies the lookup is a non-decreasing step function on monotonic curves.
func TestDutyForTemperature_NonDecreasing(t *testing.T) {
	c := monotonic(t)

	prev := c.DutyForTemperature(20000)
	for millis := 20000; millis <= 100000; millis += 250 {
		duty := c.DutyForTemperature(millis)
		require.GreaterOrEqual(t, duty, prev, "duty dropped at %d", millis)
		prev = duty
	}
}

// TestDutyPercentRoundTrip verifies conversions lose at most one duty unit per percent step.
func TestDutyPercentRoundTrip(t *testing.T) {
	for d := 0; d <= FullScaleDuty; d += 500 {
		assert.Equal(t, d, PercentToDuty(DutyToPercent(d)))
	}
	for p := 0; p <= 100; p++ {
		assert.Equal(t, p, DutyToPercent(PercentToDuty(p)))
	}
	assert.Equal(t, 0, DutyToPercent(499))
	assert.Equal(t, 10, DutyToPercent(IdleDuty))
}

// TestInsertOrClamp_DragWithinNeighbours verifies a drag between neighbours is applied as is.
func TestInsertOrClamp_DragWithinNeighbours(t *testing.T) {
	c := monotonic(t)

	p, err := c.InsertOrClamp(1, 49, 5)
	require.NoError(t, err)

	assert.Equal(t, TempPoint{49, 5}, p)
	assert.Equal(t, TempPoint{70, 15}, c.Point(2))
}

// TestInsertOrClamp_TemperatureStaysBetweenNeighbours verifies temperatures never tie a neighbour.
func TestInsertOrClamp_TemperatureStaysBetweenNeighbours(t *testing.T) {
	for _, target := range []int{-50, 0, 20, 21, 60, 69, 70, 150} {
		c := monotonic(t)
		p, err := c.InsertOrClamp(1, target, 10)
		require.NoError(t, err)
		assert.Greater(t, p.Temperature, 20)
		assert.Less(t, p.Temperature, 70)
	}

	c := monotonic(t)
	first, err := c.InsertOrClamp(0, -10, 0)
	require.NoError(t, err)
	assert.Equal(t, MinTemperature, first.Temperature)

	last, err := c.InsertOrClamp(3, 500, 20)
	require.NoError(t, err)
	assert.Equal(t, MaxTemperature, last.Temperature)
}

// TestInsertOrClamp_MonotonicFloor verifies duty cannot go below the previous point.
func TestInsertOrClamp_MonotonicFloor(t *testing.T) {
	c := monotonic(t)

	p, err := c.InsertOrClamp(2, 70, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Fan)
}

// TestInsertOrClamp_Cascade verifies later points are raised and none decrease.
func TestInsertOrClamp_Cascade(t *testing.T) {
	c, err := New([]TempPoint{{20, 0}, {40, 10}, {60, 20}, {70, 60}, {80, 30}}, Options{EnforceMonotonicDuty: true})
	require.NoError(t, err)
	before := c.Points()

	_, err = c.InsertOrClamp(1, 40, 50)
	require.NoError(t, err)
	after := c.Points()

	assert.Equal(t, 50, after[2].Fan)
	assert.Equal(t, 60, after[3].Fan)
	// stops at the first point already at or above the new value
	assert.Equal(t, 30, after[4].Fan)
	for i := range after {
		assert.GreaterOrEqual(t, after[i].Fan, before[i].Fan)
	}
}

// TestInsertOrClamp_SimpleVariant verifies the non-monotonic variant clamps points independently.
func TestInsertOrClamp_SimpleVariant(t *testing.T) {
	c, err := New(defaultPoints(), Options{})
	require.NoError(t, err)

	p, err := c.InsertOrClamp(2, 71, -5)
	require.NoError(t, err)
	assert.Equal(t, TempPoint{71, 0}, p)

	p, err = c.InsertOrClamp(1, 50, 120)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Fan)
	assert.Equal(t, 0, c.Point(2).Fan)
}

func TestInsertOrClamp_BadIndex(t *testing.T) {
	c := monotonic(t)
	_, err := c.InsertOrClamp(4, 10, 10)
	assert.Error(t, err)
}

// TestSortedCopy_Detached verifies the copy does not share storage.
func TestSortedCopy_Detached(t *testing.T) {
	c := monotonic(t)
	cp := c.SortedCopy()

	_, err := cp.InsertOrClamp(0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Point(0).Temperature)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, monotonic(t).Validate())

	c := &Curve{points: []TempPoint{{20, 10}, {20, 20}}}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)

	c = &Curve{points: []TempPoint{{20, 30}, {40, 20}}, opts: Options{EnforceMonotonicDuty: true}}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)

	c.opts.EnforceMonotonicDuty = false
	assert.NoError(t, c.Validate())

	c = &Curve{points: []TempPoint{{20, 101}}}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)

	c = &Curve{}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)
}

func TestMaxFan(t *testing.T) {
	assert.Equal(t, 20, monotonic(t).MaxFan())
}

// TestSetTemperature_Bounds verifies manual temperature entry messages name the valid bound.
func TestSetTemperature_Bounds(t *testing.T) {
	c := monotonic(t)

	err := c.SetTemperature(1, 120)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "temperature must be 0-100°C", err.Error())

	err = c.SetTemperature(1, 70)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "temperature must be between 21 and 69°C", err.Error())
	assert.Equal(t, 50, c.Point(1).Temperature)

	require.NoError(t, c.SetTemperature(1, 69))
	assert.Equal(t, 69, c.Point(1).Temperature)
}

// TestSetDuty_Monotonic verifies manual fan entry honours the previous point and cascades.
func TestSetDuty_Monotonic(t *testing.T) {
	c := monotonic(t)

	err := c.SetDuty(2, 5)
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 10, rangeErr.Min)
	assert.Equal(t, "fan speed must be at least 10%", err.Error())

	err = c.SetDuty(2, 101)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "fan speed must be 0-100%", err.Error())

	require.NoError(t, c.SetDuty(1, 18))
	assert.Equal(t, []TempPoint{{20, 0}, {50, 18}, {70, 18}, {80, 20}}, c.Points())
}

func TestSetDuty_SimpleVariant(t *testing.T) {
	c, err := New(defaultPoints(), Options{})
	require.NoError(t, err)

	require.NoError(t, c.SetDuty(2, 5))
	assert.Equal(t, 5, c.Point(2).Fan)
	assert.Equal(t, 20, c.Point(3).Fan)
}
