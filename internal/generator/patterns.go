package generator

import "strings"

// patternRule pairs a question predicate with a SQL template. Rules
// are evaluated in order and the first match wins.
type patternRule struct {
	match func(questionLower string) bool
	sql   string
}

func contains(substr string) func(string) bool {
	return func(q string) bool { return strings.Contains(q, substr) }
}

// patternRules is the fixed fallback rule set. It is intentionally
// low-fidelity: it exists to keep the demo answering common questions
// when the generation service is down, not to parse arbitrary ones.
var patternRules = []patternRule{
	{contains("all employees"), "SELECT * FROM employees"},
	{contains("employees in engineering"), "SELECT * FROM employees WHERE department = 'Engineering'"},
	{contains("average salary"), "SELECT department, AVG(salary) as average_salary FROM employees GROUP BY department"},
	{func(q string) bool {
		return strings.Contains(q, "names start with") && strings.Contains(q, "j")
	}, "SELECT * FROM employees WHERE first_name LIKE 'J%'"},
	{contains("all tables"), "SELECT name FROM sqlite_master WHERE type='table'"},
	{contains("all users"), "SELECT * FROM users"},
	{contains("all orders"), "SELECT * FROM orders"},
	{contains("pending orders"), "SELECT * FROM orders WHERE status = 'pending'"},
	{contains("total sales"), "SELECT SUM(amount) FROM sales"},
}

// defaultPatternSQL is returned when no rule matches.
const defaultPatternSQL = "SELECT * FROM employees"

// GenerateFromPatterns maps a question to SQL using the fixed rule
// list. It always returns something; the default keeps the fallback
// chain total.
func GenerateFromPatterns(question string) string {
	questionLower := strings.ToLower(question)

	for _, rule := range patternRules {
		if rule.match(questionLower) {
			return rule.sql
		}
	}

	return defaultPatternSQL
}
