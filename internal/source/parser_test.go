package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/opsdash/internal/model"
)

// writeExport creates a temp JSONL file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: "export.jsonl"}
}

func TestParseFile_RoutesByType(t *testing.T) {
	df := writeExport(t,
		`{"type":"time_entry","id":"t1","project_id":"p1","start_time":"2025-06-02T09:00:00","duration_minutes":90,"is_billable":true}`,
		`{"type":"invoice","id":"i1","client_id":"c1","status":"sent","total_amount":500,"paid_amount":0,"remaining_amount":500,"due_date":"2025-07-01"}`,
		`{"type":"payment","id":"pay1","invoice_id":"i1","amount":250,"payment_date":"2025-06-10"}`,
		`{"type":"expense","id":"e1","category":"software","amount":40,"date":"2025-06-03"}`,
		`{"type":"project","id":"p1","client_id":"c1","name":"Site","budget":1000,"status":"active"}`,
		`{"type":"goal","id":"g1","title":"Q3","goal_type":"revenue","target_amount":10000,"is_active":true}`,
		`{"type":"task","id":"k1","title":"Ship","due_date":"2025-06-20","status":"todo"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}

	r := result.Records
	if len(r.TimeEntries) != 1 || r.TimeEntries[0].DurationMinutes != 90 {
		t.Errorf("TimeEntries = %+v, want one 90-minute entry", r.TimeEntries)
	}
	if len(r.Invoices) != 1 || r.Invoices[0].RemainingAmount == nil || *r.Invoices[0].RemainingAmount != 500 {
		t.Errorf("Invoices = %+v, want one with remaining 500", r.Invoices)
	}
	if len(r.Payments) != 1 || r.Payments[0].Amount != 250 {
		t.Errorf("Payments = %+v, want one of 250", r.Payments)
	}
	if len(r.Expenses) != 1 || r.Expenses[0].Category != "software" {
		t.Errorf("Expenses = %+v, want one software expense", r.Expenses)
	}
	if len(r.Projects) != 1 || r.Projects[0].Budget == nil || *r.Projects[0].Budget != 1000 {
		t.Errorf("Projects = %+v, want one with budget 1000", r.Projects)
	}
	if len(r.Goals) != 1 || r.Goals[0].GoalType != model.GoalRevenue {
		t.Errorf("Goals = %+v, want one revenue goal", r.Goals)
	}
	if len(r.Tasks) != 1 || r.Tasks[0].DueDate != "2025-06-20" {
		t.Errorf("Tasks = %+v, want one due 2025-06-20", r.Tasks)
	}
	if result.Lines != 7 {
		t.Errorf("Lines = %d, want 7", result.Lines)
	}
	if result.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", result.ParseErrors)
	}
}

func TestParseFile_NullableFields(t *testing.T) {
	df := writeExport(t,
		`{"type":"invoice","id":"i1","status":"sent","total_amount":300,"remaining_amount":null}`,
		`{"type":"project","id":"p1","name":"No budget","status":"active"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if got := result.Records.Invoices[0].RemainingAmount; got != nil {
		t.Errorf("RemainingAmount = %v, want nil", *got)
	}
	if got := result.Records.Projects[0].Budget; got != nil {
		t.Errorf("Budget = %v, want nil", *got)
	}
}

func TestParseFile_SkipsUnknownTypes(t *testing.T) {
	df := writeExport(t,
		`{"type":"client","id":"c1","name":"Acme"}`,
		`{"id":"x1","amount":10}`,
		`{"type":"payment","id":"p1","amount":10,"payment_date":"2025-06-01"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if n := result.Records.Len(); n != 1 {
		t.Errorf("Records.Len() = %d, want 1", n)
	}
	if result.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0 (unknown types are not errors)", result.ParseErrors)
	}
}

func TestParseFile_MalformedLines(t *testing.T) {
	df := writeExport(t,
		`{"type":"expense","id":"e1","amount":"not a number","date":"2025-06-01"}`,
		`{"type":"expense","id":"e2","amount":12.5,"date":"2025-06-01"}`,
		`{"type":"expense", broken`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records.Expenses) != 1 {
		t.Errorf("Expenses = %d, want 1", len(result.Records.Expenses))
	}
	if result.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", result.ParseErrors)
	}
}

func TestParseFile_BlankLines(t *testing.T) {
	df := writeExport(t,
		``,
		`{"type":"task","id":"k1","title":"a","status":"todo"}`,
		`   `,
	)

	result := ParseFile(df)
	if result.Lines != 1 {
		t.Errorf("Lines = %d, want 1", result.Lines)
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	if result.Err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractTopLevelType(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"simple", `{"type":"invoice","id":"i1"}`, "invoice"},
		{"spaced", `{"id":"x", "type" : "time_entry"}`, "time_entry"},
		{"nested ignored", `{"meta":{"type":"task"},"type":"goal"}`, "goal"},
		{"nested only", `{"meta":{"type":"task"}}`, ""},
		{"as value", `{"label":"type","type":"expense"}`, "expense"},
		{"escaped quote", `{"description":"a \"type\" here","type":"payment"}`, "payment"},
		{"unknown", `{"type":"client"}`, ""},
		{"missing", `{"id":"x"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTopLevelType([]byte(tt.line)); got != tt.want {
				t.Errorf("extractTopLevelType(%s) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestAppendTasks_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	tasks := []model.Task{
		{ID: "a", Title: "Send invoice reminders", Status: "todo", Priority: "high"},
		{ID: "b", Title: "Review budget", Status: "todo", DueDate: "2025-07-01"},
	}

	if err := AppendTasks(path, tasks[:1]); err != nil {
		t.Fatal(err)
	}
	if err := AppendTasks(path, tasks[1:]); err != nil {
		t.Fatal(err)
	}

	result := ParseFile(DiscoveredFile{Path: path})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records.Tasks) != 2 {
		t.Fatalf("Tasks = %d, want 2", len(result.Records.Tasks))
	}
	if result.Records.Tasks[1].DueDate != "2025-07-01" {
		t.Errorf("Tasks[1].DueDate = %q, want 2025-07-01", result.Records.Tasks[1].DueDate)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	mk := func(rel string) {
		t.Helper()
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	mk("b.jsonl")
	mk("a.ndjson")
	mk("notes.txt")
	mk("2025/june.jsonl")
	mk(".trash/old.jsonl")

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.ToSlash(f.Name))
	}
	want := []string{"2025/june.jsonl", "a.ndjson", "b.jsonl"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("ScanDir names = %v, want %v", names, want)
	}
}

func TestScanDir_Missing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil || files != nil {
		t.Errorf("ScanDir(missing) = %v, %v; want nil, nil", files, err)
	}
}
