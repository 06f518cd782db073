package completion

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func docXML(fields map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="ISO-8859-1"?><FaxStatus>`)
	for name, value := range fields {
		fmt.Fprintf(&b, `<IndexField Name=%q Value=%q/>`, name, value)
	}
	b.WriteString(`</FaxStatus>`)
	return []byte(b.String())
}

func baseFields() map[string]string {
	return map[string]string{
		"UniqueID":            "JOB-100",
		"Fax Completion Time": "11/14/2025 3:56:57 AM",
		"Fax Create Time":     "11/14/2025 3:55:20 AM",
		"Job Create Time":     "11/14/2025 3:55:18 AM",
		"Send Duration":       "00:00:37",
		"Disposition":         "0",
		"TermStat":            "0",
		"Good Page Count":     "3",
		"Bad Page Count":      "0",
		"To Fax Number":       "9045551234",
		"User ID":             "acct1",
		"Fax Handle":          "h-9",
		"Fax Channel":         "4",
		"Fax Server":          "faxsrv01",
		"Type":                "Send",
	}
}

func TestParseFullDocument(t *testing.T) {
	t.Parallel()

	doc, err := Parse(docXML(baseFields()))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.JobID != "JOB-100" {
		t.Errorf("JobID = %q", doc.JobID)
	}
	wantCompleted := time.Date(2025, 11, 14, 3, 56, 57, 0, time.UTC)
	if !doc.CompletedAt.Equal(wantCompleted) {
		t.Errorf("CompletedAt = %v, want %v", doc.CompletedAt, wantCompleted)
	}
	if doc.SubmittedAt == nil || !doc.SubmittedAt.Equal(time.Date(2025, 11, 14, 3, 55, 20, 0, time.UTC)) {
		t.Errorf("SubmittedAt = %v", doc.SubmittedAt)
	}
	if doc.DurationSeconds != 37 {
		t.Errorf("DurationSeconds = %d, want 37", doc.DurationSeconds)
	}
	if !doc.Success {
		t.Error("document should be a success")
	}
	if doc.ErrorCode != "" || doc.ErrorDescription != "" {
		t.Errorf("success must carry no error fields, got %q / %q", doc.ErrorCode, doc.ErrorDescription)
	}
	if doc.GoodPageCount != 3 || doc.BadPageCount != 0 {
		t.Errorf("page counts = %d/%d", doc.GoodPageCount, doc.BadPageCount)
	}
	if doc.RecipientPhone != "9045551234" || doc.AccountName != "acct1" {
		t.Errorf("recipient/account = %q/%q", doc.RecipientPhone, doc.AccountName)
	}
	if doc.FaxServer != "faxsrv01" || doc.FaxChannel != "4" || doc.FaxHandle != "h-9" || doc.JobType != "Send" {
		t.Errorf("vendor fields = %q %q %q %q", doc.FaxServer, doc.FaxChannel, doc.FaxHandle, doc.JobType)
	}
}

func TestParseTimestampDialects(t *testing.T) {
	t.Parallel()

	meridiem, ok := parseTimestamp("11/14/2025 3:56:57 AM")
	if !ok {
		t.Fatal("12-hour timestamp should parse")
	}
	iso, ok := parseTimestamp("2025-11-14 03:56:57")
	if !ok {
		t.Fatal("ISO-like timestamp should parse")
	}
	if !meridiem.Equal(iso) {
		t.Fatalf("dialects disagree: %v vs %v", meridiem, iso)
	}

	military, ok := parseTimestamp("11/14/2025 15:56:57")
	if !ok {
		t.Fatal("24-hour timestamp should parse")
	}
	if military.Hour() != 15 {
		t.Fatalf("hour = %d, want 15", military.Hour())
	}

	if _, ok := parseTimestamp("next tuesday"); ok {
		t.Fatal("garbage timestamp should not parse")
	}
	if _, ok := parseTimestamp(""); ok {
		t.Fatal("empty timestamp should not parse")
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value string
		want  int
	}{
		{"00:00:37", 37},
		{"00:02:05", 125},
		{"01:00:00", 3600},
		{"37", 0},
		{"oops", 0},
		{"", 0},
	}

	for _, tc := range testCases {
		if got := parseDuration(tc.value); got != tc.want {
			t.Errorf("parseDuration(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestParseSuccessPolicy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		disposition string
		termStat    string
		wantSuccess bool
		wantCode    string
	}{
		{name: "clean transmit", disposition: "0", termStat: "0", wantSuccess: true},
		{name: "accepted alternate code", disposition: "0", termStat: "32", wantSuccess: true},
		{name: "rejected term stat", disposition: "0", termStat: "99", wantSuccess: false, wantCode: "99"},
		{name: "nonzero disposition", disposition: "2", termStat: "0", wantSuccess: false, wantCode: "0"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fields := baseFields()
			fields["Disposition"] = tc.disposition
			fields["TermStat"] = tc.termStat

			doc, err := Parse(docXML(fields))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if doc.Success != tc.wantSuccess {
				t.Fatalf("Success = %v, want %v", doc.Success, tc.wantSuccess)
			}
			if !tc.wantSuccess {
				if doc.ErrorCode != tc.wantCode {
					t.Fatalf("ErrorCode = %q, want %q", doc.ErrorCode, tc.wantCode)
				}
				if doc.ErrorDescription == "" {
					t.Fatal("failure should compose an error description")
				}
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(fields map[string]string)
	}{
		{name: "missing job id", mutate: func(f map[string]string) { delete(f, "UniqueID") }},
		{name: "missing completion time", mutate: func(f map[string]string) { delete(f, "Fax Completion Time") }},
		{name: "unparsable completion time", mutate: func(f map[string]string) { f["Fax Completion Time"] = "yesterday-ish" }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fields := baseFields()
			tc.mutate(fields)

			if _, err := Parse(docXML(fields)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("error = %v, want ErrMalformed", err)
			}
		})
	}

	if _, err := Parse([]byte("<not-closed")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("syntax error should classify as malformed, got %v", err)
	}
}

func TestParseDefaultsForAbsentFields(t *testing.T) {
	t.Parallel()

	doc, err := Parse(docXML(map[string]string{
		"UniqueID":            "JOB-200",
		"Fax Completion Time": "2025-11-14 03:56:57",
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.DurationSeconds != 0 || doc.GoodPageCount != 0 || doc.BadPageCount != 0 {
		t.Errorf("numeric defaults = %d/%d/%d, want zeros",
			doc.DurationSeconds, doc.GoodPageCount, doc.BadPageCount)
	}
	if doc.SubmittedAt != nil || doc.JobCreatedAt != nil {
		t.Error("absent timestamps should stay nil")
	}
	// Disposition and TermStat default to zero, which the policy reads as success.
	if !doc.Success {
		t.Error("zero-code defaults should classify as success")
	}
}

func TestParseElapsedTimeFallback(t *testing.T) {
	t.Parallel()

	fields := baseFields()
	delete(fields, "Send Duration")
	fields["Elapsed Time"] = "00:01:02"

	doc, err := Parse(docXML(fields))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.DurationSeconds != 62 {
		t.Fatalf("DurationSeconds = %d, want 62", doc.DurationSeconds)
	}
}
