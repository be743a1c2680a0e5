package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"github.com/locvowork/employee_records/internal/domain"
)

// Datastore kinds. Effective-dated rows use their relation table as kind and
// sit under the employee key, so one employee's history is an entity group.
const (
	kindEmployee       = "Employee"
	kindDepartment     = "Department"
	kindDepartmentName = "DepartmentName"
)

// Datastore caps the mutations of one commit. Cascading deletes keep at most
// txDeleteBudget keys in the surrounding transaction so the department delete
// and both relation cascades fit in a single commit.
const (
	maxCommitMutations = 500
	txDeleteBudget     = 200
)

// NewDatastoreClient connects to Cloud Datastore. DATASTORE_EMULATOR_HOST is
// honoured by the client library.
func NewDatastoreClient(ctx context.Context, projectID string) (*datastore.Client, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return client, nil
}

// DatastoreStore is a domain.Store on Cloud Datastore. RunInTx maps onto
// RunInTransaction, which retries on contention.
type DatastoreStore struct {
	client *datastore.Client
}

// NewDatastoreStore wraps an existing client.
func NewDatastoreStore(client *datastore.Client) *DatastoreStore {
	return &DatastoreStore{client: client}
}

func (s *DatastoreStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("datastore client is nil")
	}
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		return fn(ctx, &dsRepositories{s: session{client: s.client, tx: tx}})
	})
	return err
}

func (s *DatastoreStore) View(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("datastore client is nil")
	}
	return fn(ctx, &dsRepositories{s: session{client: s.client}})
}

// session routes reads and writes through the transaction when there is one.
// Only ancestor queries may join a transaction; other queries read committed
// data through the client.
type session struct {
	client *datastore.Client
	tx     *datastore.Transaction
}

func (s session) get(ctx context.Context, key *datastore.Key, dst interface{}) error {
	if s.tx != nil {
		return s.tx.Get(key, dst)
	}
	return s.client.Get(ctx, key, dst)
}

func (s session) put(ctx context.Context, key *datastore.Key, src interface{}) error {
	if s.tx != nil {
		_, err := s.tx.Put(key, src)
		return err
	}
	_, err := s.client.Put(ctx, key, src)
	return err
}

func (s session) delete(ctx context.Context, keys ...*datastore.Key) error {
	if len(keys) == 0 {
		return nil
	}
	if s.tx != nil {
		return s.tx.DeleteMulti(keys)
	}
	return s.client.DeleteMulti(ctx, keys)
}

// deleteMany removes a possibly large key set. Inside a transaction the first
// txDeleteBudget keys join the transaction and the rest are deleted in
// committed batches ahead of it, so a failed transaction can leave the
// overflow already removed.
func (s session) deleteMany(ctx context.Context, keys []*datastore.Key) error {
	inTx, batches := splitDeletes(keys, s.tx != nil)
	for _, batch := range batches {
		if err := s.client.DeleteMulti(ctx, batch); err != nil {
			return err
		}
	}
	if s.tx != nil {
		return s.delete(ctx, inTx...)
	}
	return nil
}

// splitDeletes divides keys into the part deleted inside the transaction and
// batches of at most maxCommitMutations deleted on their own.
func splitDeletes(keys []*datastore.Key, transactional bool) (inTx []*datastore.Key, batches [][]*datastore.Key) {
	rest := keys
	if transactional {
		if len(rest) <= txDeleteBudget {
			return rest, nil
		}
		inTx, rest = rest[:txDeleteBudget], rest[txDeleteBudget:]
	}
	for len(rest) > 0 {
		n := min(len(rest), maxCommitMutations)
		batches = append(batches, rest[:n])
		rest = rest[n:]
	}
	return inTx, batches
}

func (s session) getAll(ctx context.Context, q *datastore.Query, dst interface{}, ancestor bool) ([]*datastore.Key, error) {
	if s.tx != nil && ancestor {
		q = q.Transaction(s.tx)
	}
	return s.client.GetAll(ctx, q, dst)
}

// exists reports whether key is stored, without decoding it.
func (s session) exists(ctx context.Context, key *datastore.Key) (bool, error) {
	var props datastore.PropertyList
	err := s.get(ctx, key, &props)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return false, nil
	}
	return err == nil, err
}

type dsRepositories struct {
	s session
}

func (r *dsRepositories) Employees() domain.EmployeeRepository {
	return &dsEmployeeRepository{s: r.s}
}

func (r *dsRepositories) Departments() domain.DepartmentRepository {
	return &dsDepartmentRepository{s: r.s}
}

func (r *dsRepositories) Assignments() domain.TemporalRepository[struct{}] {
	return &dsTemporalRepository[struct{}]{s: r.s, relation: domain.AssignmentRelation}
}

func (r *dsRepositories) Managements() domain.TemporalRepository[struct{}] {
	return &dsTemporalRepository[struct{}]{s: r.s, relation: domain.ManagementRelation}
}

func (r *dsRepositories) Salaries() domain.TemporalRepository[int] {
	return &dsTemporalRepository[int]{s: r.s, relation: domain.SalaryRelation}
}

func (r *dsRepositories) Titles() domain.TemporalRepository[string] {
	return &dsTemporalRepository[string]{s: r.s, relation: domain.TitleRelation}
}

func employeeKey(empNo int) *datastore.Key {
	return datastore.IDKey(kindEmployee, int64(empNo), nil)
}

func departmentKey(deptNo string) *datastore.Key {
	return datastore.NameKey(kindDepartment, deptNo, nil)
}

func departmentNameKey(name string) *datastore.Key {
	return datastore.NameKey(kindDepartmentName, name, nil)
}

// notFound converts ErrNoSuchEntity into the domain error.
func notFound(err error, what string) error {
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
