package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/datastore"
	"github.com/locvowork/employee_records/internal/domain"
)

type employeeEntity struct {
	EmpNo     int64
	BirthDate time.Time `datastore:",noindex"`
	FirstName string
	LastName  string
	Gender    string    `datastore:",noindex"`
	HireDate  time.Time `datastore:",noindex"`
}

func toEmployeeEntity(e *domain.Employee) *employeeEntity {
	return &employeeEntity{
		EmpNo:     int64(e.EmpNo),
		BirthDate: e.BirthDate.In(time.UTC),
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		HireDate:  e.HireDate.In(time.UTC),
	}
}

func (e employeeEntity) toDomain() domain.Employee {
	return domain.Employee{
		EmpNo:     int(e.EmpNo),
		BirthDate: civil.DateOf(e.BirthDate.UTC()),
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		HireDate:  civil.DateOf(e.HireDate.UTC()),
	}
}

type dsEmployeeRepository struct {
	s session
}

func (r *dsEmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	ok, err := r.s.exists(ctx, employeeKey(e.EmpNo))
	if err != nil {
		return notFound(err, employeeLabel(e.EmpNo))
	}
	if ok {
		return fmt.Errorf("%s: %w", employeeLabel(e.EmpNo), domain.ErrAlreadyExists)
	}
	return notFound(r.s.put(ctx, employeeKey(e.EmpNo), toEmployeeEntity(e)), employeeLabel(e.EmpNo))
}

func (r *dsEmployeeRepository) GetByID(ctx context.Context, empNo int) (*domain.Employee, error) {
	var ent employeeEntity
	if err := r.s.get(ctx, employeeKey(empNo), &ent); err != nil {
		return nil, notFound(err, employeeLabel(empNo))
	}
	e := ent.toDomain()
	return &e, nil
}

func (r *dsEmployeeRepository) Exists(ctx context.Context, empNo int) (bool, error) {
	return r.s.exists(ctx, employeeKey(empNo))
}

func (r *dsEmployeeRepository) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	q := datastore.NewQuery(kindEmployee).Order("EmpNo")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return r.query(ctx, q, nil)
}

func (r *dsEmployeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	ok, err := r.s.exists(ctx, employeeKey(e.EmpNo))
	if err != nil {
		return notFound(err, employeeLabel(e.EmpNo))
	}
	if !ok {
		return fmt.Errorf("%s: %w", employeeLabel(e.EmpNo), domain.ErrNotFound)
	}
	return notFound(r.s.put(ctx, employeeKey(e.EmpNo), toEmployeeEntity(e)), employeeLabel(e.EmpNo))
}

func (r *dsEmployeeRepository) Delete(ctx context.Context, empNo int) error {
	ok, err := r.s.exists(ctx, employeeKey(empNo))
	if err != nil {
		return notFound(err, employeeLabel(empNo))
	}
	if !ok {
		return fmt.Errorf("%s: %w", employeeLabel(empNo), domain.ErrNotFound)
	}
	return notFound(r.s.delete(ctx, employeeKey(empNo)), employeeLabel(empNo))
}

// SearchByName filters in process; Datastore has no substring match.
func (r *dsEmployeeRepository) SearchByName(ctx context.Context, name string) ([]domain.Employee, error) {
	needle := strings.ToLower(name)
	return r.query(ctx, datastore.NewQuery(kindEmployee).Order("EmpNo"), func(e domain.Employee) bool {
		return strings.Contains(strings.ToLower(e.FirstName), needle) ||
			strings.Contains(strings.ToLower(e.LastName), needle)
	})
}

func (r *dsEmployeeRepository) query(ctx context.Context, q *datastore.Query, keep func(domain.Employee) bool) ([]domain.Employee, error) {
	var ents []employeeEntity
	if _, err := r.s.getAll(ctx, q, &ents, false); err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	out := make([]domain.Employee, 0, len(ents))
	for _, ent := range ents {
		e := ent.toDomain()
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

type departmentEntity struct {
	DeptNo   string
	DeptName string
}

// departmentNameEntity reserves a department name for one department.
type departmentNameEntity struct {
	DeptNo string `datastore:",noindex"`
}

type dsDepartmentRepository struct {
	s session
}

func (r *dsDepartmentRepository) Create(ctx context.Context, d *domain.Department) error {
	ok, err := r.s.exists(ctx, departmentKey(d.DeptNo))
	if err != nil {
		return notFound(err, departmentLabel(d.DeptNo))
	}
	if ok {
		return fmt.Errorf("%s: %w", departmentLabel(d.DeptNo), domain.ErrAlreadyExists)
	}
	if err := r.reserveName(ctx, d.DeptName, d.DeptNo); err != nil {
		return err
	}
	return notFound(r.s.put(ctx, departmentKey(d.DeptNo), &departmentEntity{DeptNo: d.DeptNo, DeptName: d.DeptName}), departmentLabel(d.DeptNo))
}

func (r *dsDepartmentRepository) GetByID(ctx context.Context, deptNo string) (*domain.Department, error) {
	var ent departmentEntity
	if err := r.s.get(ctx, departmentKey(deptNo), &ent); err != nil {
		return nil, notFound(err, departmentLabel(deptNo))
	}
	return &domain.Department{DeptNo: ent.DeptNo, DeptName: ent.DeptName}, nil
}

func (r *dsDepartmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	var marker departmentNameEntity
	if err := r.s.get(ctx, departmentNameKey(name), &marker); err != nil {
		return nil, notFound(err, fmt.Sprintf("department name %q", name))
	}
	return r.GetByID(ctx, marker.DeptNo)
}

func (r *dsDepartmentRepository) Exists(ctx context.Context, deptNo string) (bool, error) {
	return r.s.exists(ctx, departmentKey(deptNo))
}

func (r *dsDepartmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	return r.query(ctx, nil)
}

func (r *dsDepartmentRepository) Update(ctx context.Context, d *domain.Department) error {
	current, err := r.GetByID(ctx, d.DeptNo)
	if err != nil {
		return err
	}
	if current.DeptName != d.DeptName {
		if err := r.reserveName(ctx, d.DeptName, d.DeptNo); err != nil {
			return err
		}
		if err := r.s.delete(ctx, departmentNameKey(current.DeptName)); err != nil {
			return notFound(err, departmentLabel(d.DeptNo))
		}
	}
	return notFound(r.s.put(ctx, departmentKey(d.DeptNo), &departmentEntity{DeptNo: d.DeptNo, DeptName: d.DeptName}), departmentLabel(d.DeptNo))
}

func (r *dsDepartmentRepository) Delete(ctx context.Context, deptNo string) error {
	current, err := r.GetByID(ctx, deptNo)
	if err != nil {
		return err
	}
	return notFound(r.s.delete(ctx, departmentKey(deptNo), departmentNameKey(current.DeptName)), departmentLabel(deptNo))
}

func (r *dsDepartmentRepository) SearchByName(ctx context.Context, name string) ([]domain.Department, error) {
	needle := strings.ToLower(name)
	return r.query(ctx, func(d domain.Department) bool {
		return strings.Contains(strings.ToLower(d.DeptName), needle)
	})
}

// reserveName claims name for deptNo, failing when another department holds it.
func (r *dsDepartmentRepository) reserveName(ctx context.Context, name, deptNo string) error {
	var marker departmentNameEntity
	err := r.s.get(ctx, departmentNameKey(name), &marker)
	switch {
	case err == nil && marker.DeptNo != deptNo:
		return fmt.Errorf("department name %q: %w", name, domain.ErrAlreadyExists)
	case err != nil && !errors.Is(err, datastore.ErrNoSuchEntity):
		return fmt.Errorf("department name %q: %w", name, err)
	}
	return notFound(r.s.put(ctx, departmentNameKey(name), &departmentNameEntity{DeptNo: deptNo}), departmentLabel(deptNo))
}

func (r *dsDepartmentRepository) query(ctx context.Context, keep func(domain.Department) bool) ([]domain.Department, error) {
	var ents []departmentEntity
	if _, err := r.s.getAll(ctx, datastore.NewQuery(kindDepartment).Order("DeptNo"), &ents, false); err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	out := make([]domain.Department, 0, len(ents))
	for _, ent := range ents {
		d := domain.Department{DeptNo: ent.DeptNo, DeptName: ent.DeptName}
		if keep == nil || keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// temporalEntity stores every relation. Salary and Title are left zero by the
// relations that do not carry them.
type temporalEntity struct {
	EmpNo    int64
	DeptNo   string
	FromDate time.Time
	ToDate   time.Time `datastore:",noindex"`
	OpenEnd  bool      `datastore:",noindex"`
	Salary   int64     `datastore:",noindex,omitempty"`
	Title    string    `datastore:",omitempty"`
}

type dsTemporalRepository[P any] struct {
	s        session
	relation domain.Relation
}

func (r *dsTemporalRepository[P]) key(k domain.Key) *datastore.Key {
	name := k.FromDate.String()
	if r.relation.Secondary {
		name = k.DeptNo + "|" + name
	}
	return datastore.NameKey(r.relation.Table, name, employeeKey(k.EmpNo))
}

func (r *dsTemporalRepository[P]) toEntity(row domain.Row[P]) *temporalEntity {
	ent := &temporalEntity{
		EmpNo:    int64(row.EmpNo),
		DeptNo:   row.DeptNo,
		FromDate: row.FromDate.In(time.UTC),
		OpenEnd:  row.ToDate == nil,
	}
	if row.ToDate != nil {
		ent.ToDate = row.ToDate.In(time.UTC)
	}
	switch v := any(row.Value).(type) {
	case int:
		ent.Salary = int64(v)
	case string:
		ent.Title = v
	}
	return ent
}

func (r *dsTemporalRepository[P]) fromEntity(ent temporalEntity) domain.Row[P] {
	row := domain.Row[P]{
		EmpNo:    int(ent.EmpNo),
		DeptNo:   ent.DeptNo,
		FromDate: civil.DateOf(ent.FromDate.UTC()),
	}
	if !ent.OpenEnd {
		to := civil.DateOf(ent.ToDate.UTC())
		row.ToDate = &to
	}
	switch v := any(&row.Value).(type) {
	case *int:
		*v = int(ent.Salary)
	case *string:
		*v = ent.Title
	}
	return row
}

func (r *dsTemporalRepository[P]) label(k domain.Key) string {
	return fmt.Sprintf("%s %+v", r.relation.Name, k)
}

func (r *dsTemporalRepository[P]) Insert(ctx context.Context, row domain.Row[P]) error {
	key := r.key(row.Key())
	ok, err := r.s.exists(ctx, key)
	if err != nil {
		return notFound(err, r.label(row.Key()))
	}
	if ok {
		return fmt.Errorf("%s: %w", r.label(row.Key()), domain.ErrAlreadyExists)
	}
	return notFound(r.s.put(ctx, key, r.toEntity(row)), r.label(row.Key()))
}

func (r *dsTemporalRepository[P]) Get(ctx context.Context, k domain.Key) (*domain.Row[P], error) {
	var ent temporalEntity
	if err := r.s.get(ctx, r.key(k), &ent); err != nil {
		return nil, notFound(err, r.label(k))
	}
	row := r.fromEntity(ent)
	return &row, nil
}

func (r *dsTemporalRepository[P]) ListAll(ctx context.Context) ([]domain.Row[P], error) {
	return r.query(ctx, datastore.NewQuery(r.relation.Table), false, nil)
}

func (r *dsTemporalRepository[P]) ListBySubject(ctx context.Context, empNo int) ([]domain.Row[P], error) {
	return r.query(ctx, datastore.NewQuery(r.relation.Table).Ancestor(employeeKey(empNo)), true, nil)
}

func (r *dsTemporalRepository[P]) ListBySecondaryKey(ctx context.Context, deptNo string) ([]domain.Row[P], error) {
	if !r.relation.Secondary {
		return nil, fmt.Errorf("%s is not keyed by department: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	return r.query(ctx, datastore.NewQuery(r.relation.Table).FilterField("DeptNo", "=", deptNo), false, nil)
}

func (r *dsTemporalRepository[P]) SearchValue(ctx context.Context, substring string) ([]domain.Row[P], error) {
	if r.relation.ValueColumn == "" {
		return nil, fmt.Errorf("%s has no searchable value: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	needle := strings.ToLower(substring)
	return r.query(ctx, datastore.NewQuery(r.relation.Table), false, func(row domain.Row[P]) bool {
		return strings.Contains(strings.ToLower(fmt.Sprint(row.Value)), needle)
	})
}

func (r *dsTemporalRepository[P]) Replace(ctx context.Context, k domain.Key, row domain.Row[P]) error {
	old := r.key(k)
	ok, err := r.s.exists(ctx, old)
	if err != nil {
		return notFound(err, r.label(k))
	}
	if !ok {
		return fmt.Errorf("%s: %w", r.label(k), domain.ErrNotFound)
	}
	next := r.key(row.Key())
	if !next.Equal(old) {
		taken, err := r.s.exists(ctx, next)
		if err != nil {
			return notFound(err, r.label(row.Key()))
		}
		if taken {
			return fmt.Errorf("%s: %w", r.label(row.Key()), domain.ErrAlreadyExists)
		}
		if err := r.s.delete(ctx, old); err != nil {
			return notFound(err, r.label(k))
		}
	}
	return notFound(r.s.put(ctx, next, r.toEntity(row)), r.label(row.Key()))
}

func (r *dsTemporalRepository[P]) Delete(ctx context.Context, k domain.Key) error {
	key := r.key(k)
	ok, err := r.s.exists(ctx, key)
	if err != nil {
		return notFound(err, r.label(k))
	}
	if !ok {
		return fmt.Errorf("%s: %w", r.label(k), domain.ErrNotFound)
	}
	return notFound(r.s.delete(ctx, key), r.label(k))
}

func (r *dsTemporalRepository[P]) DeleteBySubject(ctx context.Context, empNo int) error {
	q := datastore.NewQuery(r.relation.Table).Ancestor(employeeKey(empNo)).KeysOnly()
	keys, err := r.s.getAll(ctx, q, nil, true)
	if err != nil {
		return fmt.Errorf("query %s: %w", r.relation.Table, err)
	}
	return notFound(r.s.deleteMany(ctx, keys), r.relation.Table)
}

func (r *dsTemporalRepository[P]) DeleteBySecondaryKey(ctx context.Context, deptNo string) error {
	if !r.relation.Secondary {
		return fmt.Errorf("%s is not keyed by department: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	q := datastore.NewQuery(r.relation.Table).FilterField("DeptNo", "=", deptNo).KeysOnly()
	keys, err := r.s.getAll(ctx, q, nil, false)
	if err != nil {
		return fmt.Errorf("query %s: %w", r.relation.Table, err)
	}
	return notFound(r.s.deleteMany(ctx, keys), r.relation.Table)
}

func (r *dsTemporalRepository[P]) query(ctx context.Context, q *datastore.Query, ancestor bool, keep func(domain.Row[P]) bool) ([]domain.Row[P], error) {
	var ents []temporalEntity
	if _, err := r.s.getAll(ctx, q, &ents, ancestor); err != nil {
		return nil, fmt.Errorf("query %s: %w", r.relation.Table, err)
	}
	out := make([]domain.Row[P], 0, len(ents))
	for _, ent := range ents {
		row := r.fromEntity(ent)
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	domain.SortRows(out)
	return out, nil
}

func employeeLabel(empNo int) string {
	return fmt.Sprintf("employee %d", empNo)
}

func departmentLabel(deptNo string) string {
	return fmt.Sprintf("department %s", deptNo)
}
