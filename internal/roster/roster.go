package roster

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CallRecord is one row of the call roster workbook: a recording to
// analyze plus who supervises the agent on the call.
type CallRecord struct {
	CallID          string `json:"call_id"`
	AudioURL        string `json:"audio_url"`
	Agent           string `json:"agent,omitempty"`
	SupervisorEmail string `json:"supervisor_email,omitempty"`
}

// Summary describes the loaded roster.
type Summary struct {
	TotalCalls int            `json:"total_calls"`
	ByAgent    map[string]int `json:"by_agent"`
}

// Load reads the first sheet of a roster workbook, detecting columns
// by header heuristics. Rows without an http(s) recording link are
// skipped quietly.
func Load(path string) ([]CallRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("roster has no data rows")
	}

	audioIdx, callIDIdx, agentIdx, supervisorIdx := -1, -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "record") || strings.Contains(l, "url") || strings.Contains(l, "link"):
			if audioIdx == -1 {
				audioIdx = i
			}
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || l == "id":
			if callIDIdx == -1 {
				callIDIdx = i
			}
		case strings.Contains(l, "agent") || strings.Contains(l, "official") || strings.Contains(l, "rep"):
			if agentIdx == -1 {
				agentIdx = i
			}
		case strings.Contains(l, "supervisor") || strings.Contains(l, "email") || strings.Contains(l, "mail"):
			if supervisorIdx == -1 {
				supervisorIdx = i
			}
		}
	}
	if audioIdx == -1 {
		return nil, fmt.Errorf("roster has no recognizable recording column")
	}

	cell := func(r []string, idx int) string {
		if idx >= 0 && idx < len(r) {
			return strings.TrimSpace(r[idx])
		}
		return ""
	}

	var out []CallRecord
	for i, r := range rows {
		if i == 0 {
			continue
		}
		rec := CallRecord{
			CallID:          cell(r, callIDIdx),
			AudioURL:        cell(r, audioIdx),
			Agent:           cell(r, agentIdx),
			SupervisorEmail: cell(r, supervisorIdx),
		}
		lower := strings.ToLower(rec.AudioURL)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Summarize builds the roster summary used by the demo endpoint.
func Summarize(records []CallRecord) Summary {
	s := Summary{TotalCalls: len(records), ByAgent: map[string]int{}}
	for _, r := range records {
		if r.Agent != "" {
			s.ByAgent[r.Agent]++
		}
	}
	return s
}

// LoadAndSummarize is the startup helper: one read, both results.
func LoadAndSummarize(path string) ([]CallRecord, Summary, error) {
	records, err := Load(path)
	if err != nil {
		return nil, Summary{}, err
	}
	return records, Summarize(records), nil
}
