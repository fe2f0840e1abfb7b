package checker

import (
	"time"

	"go.yaml.in/yaml/v3"
)

// Status is the outcome of one load attempt.
type Status int

const (
	// Loaded means the submodule resolved and initialized.
	Loaded Status = iota
	// Failed means the attempt raised an error, recorded in Result.Detail.
	Failed
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as "loaded" or "failed" for JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalYAML renders the status as "loaded" or "failed".
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Result is the outcome of checking a single submodule.
type Result struct {
	Name      string        `json:"name" yaml:"name"`
	Qualified string        `json:"qualified" yaml:"qualified"`
	Status    Status        `json:"status" yaml:"status"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// OK reports whether the submodule loaded.
func (r Result) OK() bool {
	return r.Status == Loaded
}

// Report is the outcome of one CheckAll run. Results keep the order of the
// names passed in.
type Report struct {
	Package string   `json:"package" yaml:"package"`
	Results []Result `json:"results" yaml:"results"`
	OK      bool     `json:"ok" yaml:"ok"`
}

// NewReport assembles a report from results already collected for pkg.
func NewReport(pkg string, results []Result) *Report {
	r := &Report{Package: pkg, Results: results, OK: true}
	for _, res := range results {
		if !res.OK() {
			r.OK = false
			break
		}
	}
	return r
}

// Lookup returns the result for name.
func (r *Report) Lookup(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Failed returns the failed results in report order.
func (r *Report) Failed() []Result {
	return r.filter(Failed)
}

// Loaded returns the loaded results in report order.
func (r *Report) Loaded() []Result {
	return r.filter(Loaded)
}

// Counts returns how many submodules loaded and how many were checked.
func (r *Report) Counts() (loaded, total int) {
	return len(r.Loaded()), len(r.Results)
}

// Outcomes maps each name to its status, ignoring order.
func (r *Report) Outcomes() map[string]Status {
	out := make(map[string]Status, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res.Status
	}
	return out
}

// YAML serializes the report.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

func (r *Report) filter(status Status) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == status {
			out = append(out, res)
		}
	}
	return out
}
