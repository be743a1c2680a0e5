package builder

import (
	"testing"
)

func TestSQLBuilder(t *testing.T) {
	t.Run("Select", func(t *testing.T) {
		b := NewSQLBuilder()
		query, args := b.Select("emp_no", "first_name").From("employees").Where("emp_no = ?", 1).Build()
		expected := "SELECT emp_no, first_name FROM employees WHERE emp_no = $1"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 1 || args[0] != 1 {
			t.Errorf("expected args [1], got %v", args)
		}
	})

	t.Run("Insert", func(t *testing.T) {
		b := NewSQLBuilder()
		query, args := b.Insert("departments", "dept_no", "dept_name").Values("d001", "Marketing").Build()
		expected := "INSERT INTO departments (dept_no, dept_name) VALUES ($1, $2)"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 2 || args[0] != "d001" || args[1] != "Marketing" {
			t.Errorf("expected args [d001 Marketing], got %v", args)
		}
	})

	t.Run("Update", func(t *testing.T) {
		b := NewSQLBuilder()
		query, args := b.Update("departments").Set("dept_name", "Sales").Where("dept_no = ?", "d007").Build()
		expected := "UPDATE departments SET dept_name = $1 WHERE dept_no = $2"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 2 || args[0] != "Sales" || args[1] != "d007" {
			t.Errorf("expected args [Sales d007], got %v", args)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		b := NewSQLBuilder()
		query, args := b.Delete("titles").Where("emp_no = ?", 10).Build()
		expected := "DELETE FROM titles WHERE emp_no = $1"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 1 {
			t.Errorf("expected 1 arg, got %v", args)
		}
	})

	t.Run("Paging", func(t *testing.T) {
		b := NewSQLBuilder()
		query, args := b.Select("emp_no").From("employees").OrderBy("emp_no ASC").Limit(20).Offset(40).Build()
		expected := "SELECT emp_no FROM employees ORDER BY emp_no ASC LIMIT 20 OFFSET 40"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 0 {
			t.Errorf("expected no args, got %v", args)
		}
	})
}

func TestBuildIsRepeatable(t *testing.T) {
	b := NewSQLBuilder().Select("emp_no").From("dept_emp").Where("dept_no = ?", "d001")
	q1, a1 := b.Build()
	q2, a2 := b.Build()
	if q1 != q2 {
		t.Errorf("queries differ: %s vs %s", q1, q2)
	}
	if len(a1) != len(a2) {
		t.Errorf("args grew between builds: %v vs %v", a1, a2)
	}
}

func TestBuildSafe(t *testing.T) {
	_, _, err := NewSQLBuilder().Select("emp_no").From("salaries").Where("emp_no = ?").BuildSafe()
	if err == nil {
		t.Error("expected placeholder mismatch error")
	}

	query, args, err := NewSQLBuilder().Select("emp_no").From("salaries").Where("emp_no = ? AND salary > ?", 1, 100).BuildSafe()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "SELECT emp_no FROM salaries WHERE emp_no = $1 AND salary > $2" || len(args) != 2 {
		t.Errorf("unexpected result %s %v", query, args)
	}
}

func TestBuildSafeInsertArity(t *testing.T) {
	_, _, err := NewSQLBuilder().Insert("titles", "emp_no", "from_date", "to_date", "title").Values(1, "2020-01-01", nil).BuildSafe()
	if err == nil {
		t.Error("expected column/value mismatch error")
	}

	query, args, err := NewSQLBuilder().Insert("salaries", "emp_no", "salary").Values(1, 60117).BuildSafe()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "INSERT INTO salaries (emp_no, salary) VALUES ($1, $2)" || len(args) != 2 {
		t.Errorf("unexpected result %s %v", query, args)
	}
}

func TestRebind(t *testing.T) {
	got, next := rebind("a = ? AND b = ?", 3)
	if got != "a = $3 AND b = $4" {
		t.Errorf("unexpected clause %s", got)
	}
	if next != 5 {
		t.Errorf("expected next 5, got %d", next)
	}
}
