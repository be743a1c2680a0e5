package database

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/locvowork/employee_records/pkg/dataflow"
)

// SeedPreset names a dataset size.
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// GetPresetConfig returns the number of employees for a preset.
func GetPresetConfig(preset SeedPreset) (numEmployees int, err error) {
	switch preset {
	case PresetSmall:
		return 50, nil
	case PresetMedium:
		return 500, nil
	case PresetLarge:
		return 5000, nil
	default:
		return 0, fmt.Errorf("unknown preset %q", preset)
	}
}

const (
	firstEmpNo     = 10001
	maxSalaryYears = 10
)

var (
	departments = []domain.Department{
		{DeptNo: "d001", DeptName: "Marketing"},
		{DeptNo: "d002", DeptName: "Finance"},
		{DeptNo: "d003", DeptName: "Human Resources"},
		{DeptNo: "d004", DeptName: "Production"},
		{DeptNo: "d005", DeptName: "Development"},
		{DeptNo: "d006", DeptName: "Quality Management"},
		{DeptNo: "d007", DeptName: "Sales"},
		{DeptNo: "d008", DeptName: "Research"},
		{DeptNo: "d009", DeptName: "Customer Service"},
	}
	firstNames = []string{"Georgi", "Bezalel", "Parto", "Chirstian", "Kyoichi", "Anneke", "Tzvetan", "Saniya", "Sumant", "Duangkaew", "Mary", "Patricio"}
	lastNames  = []string{"Facello", "Simmel", "Bamford", "Koblick", "Maliniak", "Preusig", "Zielinski", "Kalloufi", "Peac", "Piveteau", "Sluis", "Bridgland"}
	titleTrack = []string{"Assistant Engineer", "Engineer", "Senior Engineer", "Technique Leader"}
)

// DataSeeder fills a store with a synthetic HR dataset. Every write goes
// through the services so the seeded data obeys the same rules as API writes.
type DataSeeder struct {
	employees   *service.EmployeeService
	departments *service.DepartmentService
	assignments *service.TemporalService[struct{}]
	managements *service.TemporalService[struct{}]
	salaries    *service.TemporalService[int]
	titles      *service.TemporalService[string]
	index       *ElasticSearchClient
	workers     int
	today       civil.Date
}

// NewDataSeeder creates a seeder. index may be nil.
func NewDataSeeder(store domain.Store, index *ElasticSearchClient, workers int) *DataSeeder {
	if workers < 1 {
		workers = 1
	}
	return &DataSeeder{
		employees:   service.NewEmployeeService(store),
		departments: service.NewDepartmentService(store),
		assignments: service.NewAssignmentService(store),
		managements: service.NewManagementService(store),
		salaries:    service.NewSalaryService(store),
		titles:      service.NewTitleService(store),
		index:       index,
		workers:     workers,
		today:       service.Today(),
	}
}

// seedRecord is everything written for one employee.
type seedRecord struct {
	employee   domain.Employee
	assignment domain.Assignment
	salaries   []domain.Salary
	titles     []domain.Title
}

// SeedData creates the departments, numEmployees employees with their
// histories and one current manager per department.
func (ds *DataSeeder) SeedData(ctx context.Context, numEmployees int) error {
	start := time.Now()
	logger.InfoLog(ctx, "Seeding %d employees with %d workers", numEmployees, ds.workers)

	for i := range departments {
		d := departments[i]
		if err := ds.departments.Create(ctx, &d); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("failed to create %s: %w", d.DeptNo, err)
		}
	}

	records := dataflow.Generate(ctx, numEmployees, func(i int) int { return firstEmpNo + i })
	built := dataflow.Map(ctx, records, func(empNo int) (seedRecord, error) {
		return ds.buildRecord(empNo), nil
	}, dataflow.WithBufferSize(ds.workers))

	written := make(chan domain.Employee, numEmployees)
	err := dataflow.ForEach(ctx, built, func(rec seedRecord) error {
		if err := ds.write(ctx, rec); err != nil {
			return fmt.Errorf("employee %d: %w", rec.employee.EmpNo, err)
		}
		written <- rec.employee
		return nil
	}, dataflow.WithWorkers(ds.workers), dataflow.WithRetry(2, dataflow.LinearBackoff(50*time.Millisecond)))
	close(written)
	if err != nil {
		return fmt.Errorf("failed to seed employees: %w", err)
	}

	if err := ds.seedManagers(ctx); err != nil {
		return err
	}

	if ds.index != nil {
		if err := ds.index.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to prepare index: %w", err)
		}
		batches := dataflow.Batch(ctx, dataflow.Stream[domain.Employee](written), 500)
		if err := dataflow.ForEach(ctx, batches, func(batch []domain.Employee) error {
			return ds.index.BulkIndexEmployees(ctx, batch)
		}); err != nil {
			return fmt.Errorf("failed to index employees: %w", err)
		}
		indexed, err := ds.index.ScrollAllEmployees(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify index: %w", err)
		}
		if len(indexed) < numEmployees {
			logger.WarnLog(ctx, "Index holds %d of %d seeded employees", len(indexed), numEmployees)
		}
	}

	logger.InfoLog(ctx, "Seeded %d employees in %v", numEmployees, time.Since(start))
	return nil
}

// write stores one record. Retried writes skip what already landed.
func (ds *DataSeeder) write(ctx context.Context, rec seedRecord) error {
	if err := ds.employees.Create(ctx, &rec.employee); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	if err := ignoreExisting(ds.assignments.Create(ctx, rec.assignment)); err != nil {
		return err
	}
	for _, s := range rec.salaries {
		if err := ignoreExisting(ds.salaries.Create(ctx, s)); err != nil {
			return err
		}
	}
	for _, t := range rec.titles {
		if err := ignoreExisting(ds.titles.Create(ctx, t)); err != nil {
			return err
		}
	}
	return nil
}

func ignoreExisting(err error) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}

// seedManagers makes the earliest current member of each department its
// manager.
func (ds *DataSeeder) seedManagers(ctx context.Context) error {
	for _, d := range departments {
		members, err := ds.assignments.CurrentForDepartment(ctx, d.DeptNo)
		if err != nil {
			return fmt.Errorf("failed to list %s members: %w", d.DeptNo, err)
		}
		if len(members) == 0 {
			continue
		}
		first := members[len(members)-1]
		err = ds.managements.Create(ctx, domain.Management{EmpNo: first.EmpNo, DeptNo: d.DeptNo, FromDate: first.FromDate})
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("failed to seed manager of %s: %w", d.DeptNo, err)
		}
	}
	return nil
}

// buildRecord derives a deterministic history from empNo.
func (ds *DataSeeder) buildRecord(empNo int) seedRecord {
	r := rand.New(rand.NewSource(int64(empNo)))

	birth := civil.Date{Year: 1950 + r.Intn(40), Month: time.Month(1 + r.Intn(12)), Day: 1 + r.Intn(28)}
	hire := civil.Date{Year: birth.Year + 22 + r.Intn(10), Month: time.Month(1 + r.Intn(12)), Day: 1 + r.Intn(28)}
	if !hire.Before(ds.today) {
		hire = civil.Date{Year: ds.today.Year - 1, Month: time.January, Day: 1}
	}
	gender := "M"
	if r.Intn(2) == 0 {
		gender = "F"
	}

	rec := seedRecord{
		employee: domain.Employee{
			EmpNo:     empNo,
			BirthDate: birth,
			FirstName: firstNames[r.Intn(len(firstNames))],
			LastName:  lastNames[r.Intn(len(lastNames))],
			Gender:    gender,
			HireDate:  hire,
		},
		assignment: domain.Assignment{
			EmpNo:    empNo,
			DeptNo:   departments[r.Intn(len(departments))].DeptNo,
			FromDate: hire,
		},
	}

	amount := 40000 + r.Intn(30000)
	salaryFrom := hire
	if ds.today.Year-hire.Year > maxSalaryYears {
		salaryFrom = civil.Date{Year: ds.today.Year - maxSalaryYears, Month: hire.Month, Day: hire.Day}
	}
	for from := salaryFrom; from.Before(ds.today); {
		next := civil.Date{Year: from.Year + 1, Month: from.Month, Day: from.Day}
		row := domain.Salary{EmpNo: empNo, FromDate: from, Value: amount}
		if next.Before(ds.today) {
			to := next.AddDays(-1)
			row.ToDate = &to
		}
		rec.salaries = append(rec.salaries, row)
		amount += r.Intn(3000)
		from = next
	}

	from := hire
	for i, title := range titleTrack {
		row := domain.Title{EmpNo: empNo, FromDate: from, Value: title}
		next := civil.Date{Year: from.Year + 3 + r.Intn(5), Month: from.Month, Day: from.Day}
		if i < len(titleTrack)-1 && next.Before(ds.today) {
			to := next.AddDays(-1)
			row.ToDate = &to
			rec.titles = append(rec.titles, row)
			from = next
			continue
		}
		rec.titles = append(rec.titles, row)
		break
	}
	return rec
}

// ClearData removes every employee and department. Employee deletes cascade
// to their effective-dated rows.
func (ds *DataSeeder) ClearData(ctx context.Context) error {
	employees, err := ds.employees.List(ctx, domain.EmployeeFilter{})
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	// A concurrent clear may have removed some employees already.
	err = dataflow.ForEach(ctx, dataflow.From(ctx, employees...), func(e domain.Employee) error {
		return ds.employees.Delete(ctx, e.EmpNo)
	}, dataflow.WithWorkers(ds.workers), dataflow.WithErrorHandler(func(err error) bool {
		return errors.Is(err, domain.ErrNotFound)
	}))
	if err != nil {
		return fmt.Errorf("failed to delete employees: %w", err)
	}

	depts, err := ds.departments.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list departments: %w", err)
	}
	for _, d := range depts {
		if err := ignoreMissing(ds.departments.Delete(ctx, d.DeptNo)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", d.DeptNo, err)
		}
	}

	if ds.index != nil {
		if err := ds.index.DeleteIndex(ctx); err != nil {
			return err
		}
	}

	logger.InfoLog(ctx, "Cleared %d employees and %d departments", len(employees), len(depts))
	return nil
}

func ignoreMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
