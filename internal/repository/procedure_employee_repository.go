package repository

import (
	"context"

	"github.com/locvowork/employee_records/internal/domain"
)

// procedureEmployeeRepository writes employees through the sp_insert_employee,
// sp_update_employee and sp_delete_employee procedures. Reads are shared with
// the table repository.
type procedureEmployeeRepository struct {
	*employeeRepository
}

func NewProcedureEmployeeRepository(db DBTX) domain.EmployeeRepository {
	return &procedureEmployeeRepository{employeeRepository: &employeeRepository{db: db}}
}

func (r *procedureEmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	_, err := r.db.ExecContext(ctx, "CALL sp_insert_employee($1, $2, $3, $4, $5, $6)",
		e.EmpNo, dateArg(e.BirthDate), e.FirstName, e.LastName, e.Gender, dateArg(e.HireDate))
	return mapError(err, employeeLabel(e.EmpNo))
}

// Update relies on the procedure raising no_data_found for an unknown employee.
func (r *procedureEmployeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	_, err := r.db.ExecContext(ctx, "CALL sp_update_employee($1, $2, $3, $4, $5, $6)",
		e.EmpNo, dateArg(e.BirthDate), e.FirstName, e.LastName, e.Gender, dateArg(e.HireDate))
	return mapError(err, employeeLabel(e.EmpNo))
}

func (r *procedureEmployeeRepository) Delete(ctx context.Context, empNo int) error {
	_, err := r.db.ExecContext(ctx, "CALL sp_delete_employee($1)", empNo)
	return mapError(err, employeeLabel(empNo))
}
