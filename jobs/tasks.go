// Package jobs defines the background task types and the worker that
// processes them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeQuotationPDF renders a quotation printout to PDF.
	TaskTypeQuotationPDF = "report:quotation_pdf"
)

// QuotationPDFPayload identifies the quotation to print.
type QuotationPDFPayload struct {
	QuotationID int64 `json:"quotation_id"`
}

// NewQuotationPDFTask constructs an Asynq task.
func NewQuotationPDFTask(payload QuotationPDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeQuotationPDF, data), nil
}
