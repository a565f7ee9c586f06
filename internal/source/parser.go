// Package source discovers and parses JSONL record exports from the entity store.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/opsdash/internal/model"
)

// ParseFile reads an export file and decodes every record it recognizes.
//
// Each line is routed by its top-level "type" field:
//   - time_entry, invoice, payment, expense, project, goal, task → decoded
//   - anything else, or no type at all → skipped
//
// Lines of a known type that fail to decode are counted in ParseErrors.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var res ParseResult
	recs := &res.Records

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		res.Lines++

		var derr error
		switch extractTopLevelType(line) {
		case TypeTimeEntry:
			var v model.TimeEntry
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.TimeEntries = append(recs.TimeEntries, v)
			}
		case TypeInvoice:
			var v model.Invoice
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.Invoices = append(recs.Invoices, v)
			}
		case TypePayment:
			var v model.Payment
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.Payments = append(recs.Payments, v)
			}
		case TypeExpense:
			var v model.Expense
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.Expenses = append(recs.Expenses, v)
			}
		case TypeProject:
			var v model.Project
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.Projects = append(recs.Projects, v)
			}
		case TypeGoal:
			var v model.FinancialGoal
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.Goals = append(recs.Goals, v)
			}
		case TypeTask:
			var v model.Task
			if derr = json.Unmarshal(line, &v); derr == nil {
				recs.Tasks = append(recs.Tasks, v)
			}
		default:
			continue
		}
		if derr != nil {
			res.ParseErrors++
		}
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{Err: err}
	}
	return res
}

// AppendTasks appends task records to the export file at path, creating it if needed.
func AppendTasks(path string, tasks []model.Task) error {
	//nolint:gosec // export path is chosen by the local user
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, t := range tasks {
		if err := enc.Encode(taskLine{Type: TypeTask, Task: t}); err != nil {
			return fmt.Errorf("encoding task %s: %w", t.ID, err)
		}
	}
	return w.Flush()
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey := classifyType(line, i+len(typeKey))
				if isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{', '[':
			depth++
			i++
		case '}', ']':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// classifyType checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value, not a key.
func classifyType(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 20 {
		return "", true
	}
	v := string(line[i : i+end])
	switch v {
	case TypeTimeEntry, TypeInvoice, TypePayment, TypeExpense, TypeProject, TypeGoal, TypeTask:
		return v, true
	}
	return "", true
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}
