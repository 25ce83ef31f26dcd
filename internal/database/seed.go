package database

import (
	"context"

	"github.com/askql/askql/internal/errors"
)

// demoTables is the demo schema created on first run. The application
// is a demo of NL-to-SQL generation; these four tables are the dataset
// every example question targets.
var demoTables = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			is_active INTEGER DEFAULT 1
		)`},
	{"employees", `
		CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			department TEXT,
			salary REAL,
			hire_date TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`},
	{"sales", `
		CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL,
			amount REAL NOT NULL,
			sale_date TEXT NOT NULL,
			customer_id INTEGER,
			employee_id INTEGER,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_name TEXT NOT NULL,
			total_amount REAL NOT NULL,
			status TEXT DEFAULT 'pending',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`},
}

var demoData = []string{
	`INSERT INTO users (username, email) VALUES
		('john_doe', 'john.doe@example.com'),
		('jane_smith', 'jane.smith@example.com'),
		('bob_wilson', 'bob.wilson@example.com'),
		('alice_brown', 'alice.brown@example.com'),
		('charlie_davis', 'charlie.davis@example.com')`,
	`INSERT INTO employees (first_name, last_name, email, department, salary, hire_date) VALUES
		('John', 'Doe', 'john.doe@company.com', 'Engineering', 75000.00, '2022-02-15'),
		('Jane', 'Smith', 'jane.smith@company.com', 'Marketing', 65000.00, '2022-03-20'),
		('Bob', 'Wilson', 'bob.wilson@company.com', 'Sales', 70000.00, '2021-12-10'),
		('Alice', 'Brown', 'alice.brown@company.com', 'Engineering', 80000.00, '2021-09-05'),
		('Charlie', 'Davis', 'charlie.davis@company.com', 'HR', 60000.00, '2022-04-01')`,
	`INSERT INTO sales (product_name, amount, sale_date, customer_id, employee_id) VALUES
		('Laptop', 1200.00, '2024-01-15', 1, 3),
		('Mouse', 25.00, '2024-01-16', 2, 3),
		('Keyboard', 80.00, '2024-01-17', 3, 3),
		('Monitor', 300.00, '2024-01-18', 1, 3),
		('Headphones', 150.00, '2024-01-19', 4, 3)`,
	`INSERT INTO orders (customer_name, total_amount, status) VALUES
		('Acme Corp', 1500.00, 'completed'),
		('Tech Solutions', 800.00, 'processing'),
		('Global Industries', 2200.00, 'pending'),
		('Startup Inc', 450.00, 'completed'),
		('Enterprise Ltd', 3200.00, 'processing')`,
}

// Seed creates the demo tables and, when they are empty, inserts the
// sample rows. Idempotent: an already-populated database is untouched.
func (db *DB) Seed(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	for _, table := range demoTables {
		if _, err := db.conn.ExecContext(ctx, table.ddl); err != nil {
			return errors.Wrapf(err, errors.ErrTypeDatabase, "failed to create table %s", table.name)
		}
	}

	var userCount int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to check seed state")
	}

	if userCount > 0 {
		return nil
	}

	for _, stmt := range demoData {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to insert sample data")
		}
	}

	return nil
}
