package database

import (
	"context"
	"testing"

	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/repository/memory"
	"github.com/locvowork/employee_records/internal/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seeder := NewDataSeeder(store, nil, 4)

	n, err := GetPresetConfig(PresetSmall)
	require.NoError(t, err)
	require.NoError(t, seeder.SeedData(ctx, n))

	employees, err := seeder.employees.List(ctx, domain.EmployeeFilter{})
	require.NoError(t, err)
	assert.Len(t, employees, n)

	for _, e := range employees {
		salary, err := seeder.salaries.LatestForEmployee(ctx, e.EmpNo)
		require.NoError(t, err, "employee %d", e.EmpNo)
		assert.Nil(t, salary.ToDate)

		current, err := seeder.titles.CurrentForEmployee(ctx, e.EmpNo)
		require.NoError(t, err)
		assert.Len(t, current, 1, "employee %d", e.EmpNo)
	}

	managers, err := seeder.managements.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, managers)
	for _, m := range managers {
		_, err := seeder.managements.SoleCurrentForDepartment(ctx, m.DeptNo)
		assert.NoError(t, err)
	}

	// seeding twice is a no-op
	require.NoError(t, seeder.SeedData(ctx, n))
	again, err := seeder.employees.List(ctx, domain.EmployeeFilter{})
	require.NoError(t, err)
	assert.Len(t, again, n)

	require.NoError(t, seeder.ClearData(ctx))
	employees, err = seeder.employees.List(ctx, domain.EmployeeFilter{})
	require.NoError(t, err)
	assert.Empty(t, employees)
	depts, err := seeder.departments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, depts)
	rows, err := seeder.salaries.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuildRecordIsDeterministic(t *testing.T) {
	seeder := NewDataSeeder(memory.NewStore(), nil, 1)
	a := seeder.buildRecord(10042)
	b := seeder.buildRecord(10042)
	assert.Equal(t, a, b)

	assert.Len(t, temporal.Current(a.salaries, seeder.today), 1)
	for i := 1; i < len(a.salaries); i++ {
		prev := a.salaries[i-1]
		require.NotNil(t, prev.ToDate)
		assert.Equal(t, a.salaries[i].FromDate, prev.ToDate.AddDays(1))
	}
}

func TestGetPresetConfigRejectsUnknown(t *testing.T) {
	_, err := GetPresetConfig("huge")
	assert.Error(t, err)
}
