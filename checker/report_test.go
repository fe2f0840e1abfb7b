package checker

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleReport() *Report {
	return &Report{
		Package: testPackage,
		Results: []Result{
			{Name: "context", Qualified: "opencmiss.zinc.context", Status: Loaded},
			{Name: "field", Qualified: "opencmiss.zinc.field", Status: Failed, Detail: "module not found"},
			{Name: "region", Qualified: "opencmiss.zinc.region", Status: Loaded},
		},
		OK: false,
	}
}

func Test_Status_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status   Status
		expected string
	}{
		{Loaded, "loaded"},
		{Failed, "failed"},
		{Status(42), "unknown"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assertEqual(t, tt.status.String(), tt.expected, "")
		})
	}
}

func Test_Report_Counts(t *testing.T) {
	t.Parallel()
	loaded, total := sampleReport().Counts()

	assertEqual(t, loaded, 2, "expected 2 loaded, got %d", loaded)
	assertEqual(t, total, 3, "expected 3 total, got %d", total)
}

func Test_Report_Lookup(t *testing.T) {
	t.Parallel()
	r := sampleReport()

	res, ok := r.Lookup("field")
	assertEqual(t, ok, true, "expected field in report")
	assertEqual(t, res.Detail, "module not found", "")

	_, ok = r.Lookup("scene")
	assertEqual(t, ok, false, "expected scene to be absent")
}

func Test_Report_FailedAndLoaded(t *testing.T) {
	t.Parallel()
	r := sampleReport()

	failed := r.Failed()
	if len(failed) != 1 || failed[0].Name != "field" {
		t.Errorf("expected only field to fail, got %v", failed)
	}
	loaded := r.Loaded()
	if len(loaded) != 2 || loaded[0].Name != "context" || loaded[1].Name != "region" {
		t.Errorf("expected context and region loaded in order, got %v", loaded)
	}
}

func Test_Report_YAML(t *testing.T) {
	t.Parallel()
	out, err := sampleReport().YAML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"package: opencmiss.zinc", "status: failed", "status: loaded", "detail: module not found", "ok: false"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected YAML to contain %q, got:\n%s", want, out)
		}
	}
}

func Test_Report_JSON(t *testing.T) {
	t.Parallel()
	out, err := json.Marshal(sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(string(out), `"status":"failed"`) {
		t.Errorf("expected status rendered as text, got %s", out)
	}
}

func Test_NewReport(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		results  []Result
		expected bool
	}{
		{
			name:     "all loaded",
			results:  []Result{{Name: "context"}, {Name: "region"}},
			expected: true,
		},
		{
			name:     "one failed",
			results:  []Result{{Name: "context"}, {Name: "field", Status: Failed, Detail: "module not found"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewReport(testPackage, tt.results)
			assertEqual(t, r.OK, tt.expected, "expected OK=%v, got %v", tt.expected, r.OK)
			assertEqual(t, len(r.Results), len(tt.results), "")
		})
	}
}
