package testutil

import "github.com/askql/askql/internal/schema"

func strPtr(s string) *string { return &s }

// UsersDescriptor builds the demo users table descriptor.
func UsersDescriptor() schema.TableDescriptor {
	return schema.TableDescriptor{
		TableName: "users",
		Columns: []schema.ColumnDescriptor{
			{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
			{Name: "username", DeclaredType: "TEXT", Nullable: false},
			{Name: "email", DeclaredType: "TEXT", Nullable: false},
			{Name: "created_at", DeclaredType: "TIMESTAMP", Nullable: true,
				DefaultValue: strPtr("CURRENT_TIMESTAMP")},
		},
		Indexes: []string{"sqlite_autoindex_users_1"},
		SampleRows: []map[string]interface{}{
			{"id": int64(1), "username": "john_doe", "email": "john@example.com"},
		},
	}
}

// EmployeesDescriptor builds the demo employees table descriptor.
func EmployeesDescriptor() schema.TableDescriptor {
	return schema.TableDescriptor{
		TableName: "employees",
		Columns: []schema.ColumnDescriptor{
			{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
			{Name: "first_name", DeclaredType: "TEXT", Nullable: false},
			{Name: "last_name", DeclaredType: "TEXT", Nullable: false},
			{Name: "department", DeclaredType: "TEXT", Nullable: true},
			{Name: "salary", DeclaredType: "REAL", Nullable: true},
		},
		SampleRows: []map[string]interface{}{
			{"id": int64(1), "first_name": "John", "last_name": "Smith",
				"department": "Engineering", "salary": 85000.0},
		},
	}
}

// SalesDescriptor builds the demo sales table descriptor.
func SalesDescriptor() schema.TableDescriptor {
	return schema.TableDescriptor{
		TableName: "sales",
		Columns: []schema.ColumnDescriptor{
			{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
			{Name: "customer_id", DeclaredType: "INTEGER", Nullable: true},
			{Name: "employee_id", DeclaredType: "INTEGER", Nullable: true},
			{Name: "amount", DeclaredType: "REAL", Nullable: false},
			{Name: "sale_date", DeclaredType: "TIMESTAMP", Nullable: true},
		},
	}
}

// OrdersDescriptor builds the demo orders table descriptor.
func OrdersDescriptor() schema.TableDescriptor {
	return schema.TableDescriptor{
		TableName: "orders",
		Columns: []schema.ColumnDescriptor{
			{Name: "id", DeclaredType: "INTEGER", PrimaryKey: true},
			{Name: "customer_name", DeclaredType: "TEXT", Nullable: false},
			{Name: "total_amount", DeclaredType: "REAL", Nullable: false},
			{Name: "status", DeclaredType: "TEXT", Nullable: true,
				DefaultValue: strPtr("'pending'")},
		},
	}
}

// DemoDescriptors builds the full demo schema keyed by table name.
func DemoDescriptors() map[string]schema.TableDescriptor {
	return map[string]schema.TableDescriptor{
		"users":     UsersDescriptor(),
		"employees": EmployeesDescriptor(),
		"sales":     SalesDescriptor(),
		"orders":    OrdersDescriptor(),
	}
}
