package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFromPatterns(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "all employees",
			question: "Show me all employees",
			want:     "SELECT * FROM employees",
		},
		{
			name:     "engineering department",
			question: "List employees in Engineering",
			want:     "SELECT * FROM employees WHERE department = 'Engineering'",
		},
		{
			name:     "average salary",
			question: "What is the average salary per department?",
			want:     "SELECT department, AVG(salary) as average_salary FROM employees GROUP BY department",
		},
		{
			name:     "names starting with J",
			question: "Whose names start with J?",
			want:     "SELECT * FROM employees WHERE first_name LIKE 'J%'",
		},
		{
			name:     "all tables",
			question: "Show me all tables",
			want:     "SELECT name FROM sqlite_master WHERE type='table'",
		},
		{
			name:     "all users",
			question: "show me all users please",
			want:     "SELECT * FROM users",
		},
		{
			name:     "pending orders",
			question: "Find pending orders",
			want:     "SELECT * FROM orders WHERE status = 'pending'",
		},
		{
			name:     "total sales",
			question: "what is the total sales amount",
			want:     "SELECT SUM(amount) FROM sales",
		},
		{
			name:     "no match uses default",
			question: "what is the meaning of life",
			want:     "SELECT * FROM employees",
		},
		{
			name:     "empty question uses default",
			question: "",
			want:     "SELECT * FROM employees",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateFromPatterns(tt.question))
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	// Matches both "all employees" and "average salary"; the rule list
	// order decides.
	sql := GenerateFromPatterns("show all employees and the average salary")

	assert.Equal(t, "SELECT * FROM employees", sql)
}
