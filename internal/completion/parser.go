// Package completion parses the XML status documents the fax server drops
// after each job finishes. Documents carry repeated IndexField name/value
// pairs; the parser resolves them once into a fixed schema with a defined
// default for every absent field.
package completion

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed marks a document missing its job identifier or completion
// time. Such documents carry nothing the pipeline can reconcile.
var ErrMalformed = errors.New("malformed completion document")

// Field names as the fax server writes them.
const (
	fieldUniqueID       = "UniqueID"
	fieldCompletionTime = "Fax Completion Time"
	fieldCreateTime     = "Fax Create Time"
	fieldJobCreateTime  = "Job Create Time"
	fieldSendDuration   = "Send Duration"
	fieldElapsedTime    = "Elapsed Time"
	fieldDisposition    = "Disposition"
	fieldTermStat       = "TermStat"
	fieldGoodPages      = "Good Page Count"
	fieldBadPages       = "Bad Page Count"
	fieldToFaxNumber    = "To Fax Number"
	fieldUserID         = "User ID"
	fieldFaxHandle      = "Fax Handle"
	fieldFaxChannel     = "Fax Channel"
	fieldFaxServer      = "Fax Server"
	fieldJobType        = "Type"
)

// Termination statuses the fax server reports for successful transmissions.
var acceptedTermStats = map[int]bool{0: true, 32: true}

// timestampLayouts are tried in order; the first match wins.
var timestampLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// Document is the typed result of parsing one completion file.
type Document struct {
	JobID            string
	CompletedAt      time.Time
	SubmittedAt      *time.Time
	JobCreatedAt     *time.Time
	DurationSeconds  int
	Disposition      int
	TermStat         int
	GoodPageCount    int
	BadPageCount     int
	RecipientPhone   string
	AccountName      string
	FaxHandle        string
	FaxChannel       string
	FaxServer        string
	JobType          string
	Success          bool
	ErrorCode        string
	ErrorDescription string
}

// Parse extracts a Document from raw XML. Missing job id or completion time
// returns ErrMalformed; all other absent fields fall back to defaults.
func Parse(data []byte) (*Document, error) {
	fields, err := extractFields(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	jobID := strings.TrimSpace(fields[fieldUniqueID])
	if jobID == "" {
		return nil, fmt.Errorf("%w: missing %s field", ErrMalformed, fieldUniqueID)
	}

	completedAt, ok := parseTimestamp(fields[fieldCompletionTime])
	if !ok {
		return nil, fmt.Errorf("%w: missing or unparsable %s field", ErrMalformed, fieldCompletionTime)
	}

	doc := &Document{
		JobID:          jobID,
		CompletedAt:    completedAt,
		Disposition:    parseInt(fields[fieldDisposition]),
		TermStat:       parseInt(fields[fieldTermStat]),
		GoodPageCount:  parseInt(fields[fieldGoodPages]),
		BadPageCount:   parseInt(fields[fieldBadPages]),
		RecipientPhone: fields[fieldToFaxNumber],
		AccountName:    fields[fieldUserID],
		FaxHandle:      fields[fieldFaxHandle],
		FaxChannel:     fields[fieldFaxChannel],
		FaxServer:      fields[fieldFaxServer],
		JobType:        fields[fieldJobType],
	}

	if submittedAt, ok := parseTimestamp(fields[fieldCreateTime]); ok {
		doc.SubmittedAt = &submittedAt
	}
	if jobCreatedAt, ok := parseTimestamp(fields[fieldJobCreateTime]); ok {
		doc.JobCreatedAt = &jobCreatedAt
	}

	// The server writes the transmit duration under either of two names.
	duration := fields[fieldSendDuration]
	if duration == "" {
		duration = fields[fieldElapsedTime]
	}
	doc.DurationSeconds = parseDuration(duration)

	doc.Success = doc.Disposition == 0 && acceptedTermStats[doc.TermStat]
	if !doc.Success {
		doc.ErrorCode = strconv.Itoa(doc.TermStat)
		doc.ErrorDescription = fmt.Sprintf("Disposition: %d, TermStat: %d", doc.Disposition, doc.TermStat)
	}

	return doc, nil
}

// extractFields streams the XML and collects IndexField Name/Value attribute
// pairs wherever they appear in the tree.
func extractFields(data []byte) (map[string]string, error) {
	fields := make(map[string]string)

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		// The server emits ISO-8859-1 declarations; the fields the pipeline
		// reads are ASCII, so pass bytes through unchanged.
		return input, nil
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("xml syntax error: %v", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "IndexField" {
			continue
		}

		var name, value string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "Name":
				name = attr.Value
			case "Value":
				value = attr.Value
			}
		}
		if name != "" && value != "" {
			fields[name] = value
		}
	}

	return fields, nil
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseDuration accepts an HH:MM:SS literal and returns total seconds;
// anything else yields zero.
func parseDuration(value string) int {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func parseInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
