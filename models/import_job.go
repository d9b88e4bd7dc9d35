package models

import "time"

// JobType declares what kind of records an uploaded file contains.
type JobType string

const (
	JobTypeProduct  JobType = "product"
	JobTypeSupplier JobType = "supplier"
)

// JobStatus is the lifecycle state of an import job. Completed and failed
// are terminal; a job never leaves a terminal state.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// MatchOptions controls which matching strategies run and in what order.
// Zero value means "all strategies, default priority".
type MatchOptions struct {
	UseEAN   bool     `json:"useEan"`
	UseMPN   bool     `json:"useMpn"`
	UseName  bool     `json:"useName"`
	Priority []string `json:"priority,omitempty"`
}

// DefaultMatchOptions enables every strategy in ean, mpn, name order.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		UseEAN:   true,
		UseMPN:   true,
		UseName:  true,
		Priority: []string{MatchMethodEAN, MatchMethodMPN, MatchMethodName},
	}
}

// EnabledPriority returns the strategy order with disabled strategies
// removed. Unknown names in Priority are dropped.
func (o MatchOptions) EnabledPriority() []string {
	priority := o.Priority
	if len(priority) == 0 {
		priority = []string{MatchMethodEAN, MatchMethodMPN, MatchMethodName}
	}
	enabled := make([]string, 0, len(priority))
	for _, method := range priority {
		switch method {
		case MatchMethodEAN:
			if o.UseEAN {
				enabled = append(enabled, method)
			}
		case MatchMethodMPN:
			if o.UseMPN {
				enabled = append(enabled, method)
			}
		case MatchMethodName:
			if o.UseName {
				enabled = append(enabled, method)
			}
		}
	}
	return enabled
}

// Match method tags recorded on offers and in result statistics.
const (
	MatchMethodEAN  = "ean"
	MatchMethodMPN  = "mpn"
	MatchMethodName = "name"
	MatchMethodNone = "none"
)

// FailedGroup describes one contiguous range of rows that failed as a unit,
// typically a persistence batch that could not be written.
type FailedGroup struct {
	FirstRow int    `json:"firstRow"`
	LastRow  int    `json:"lastRow"`
	Count    int    `json:"count"`
	Error    string `json:"error"`
}

// MatchStats aggregates how many offers matched and by which strategy.
type MatchStats struct {
	TotalMatched int            `json:"totalMatched"`
	ByMethod     map[string]int `json:"byMethod"`
}

// NewMatchStats returns stats with every method counter present so the
// serialized form always carries ean/mpn/name keys.
func NewMatchStats() MatchStats {
	return MatchStats{
		ByMethod: map[string]int{
			MatchMethodEAN:  0,
			MatchMethodMPN:  0,
			MatchMethodName: 0,
		},
	}
}

// ImportResults is the accumulated summary stored on the job and returned
// to status pollers once the job finishes.
type ImportResults struct {
	TotalRecords      int           `json:"totalRecords"`
	SuccessfulImports int           `json:"successfulImports"`
	FailedImports     int           `json:"failedImports"`
	SuppliersAdded    int           `json:"suppliersAdded"`
	MatchStats        MatchStats    `json:"matchStats"`
	FailedGroups      []FailedGroup `json:"failedGroups,omitempty"`
	Truncated         bool          `json:"truncated,omitempty"`
}

// ImportJob is the durable record of one upload being processed. The
// pipeline owns it while active; pollers read it through the job store.
type ImportJob struct {
	ID            string             `json:"id"`
	FileName      string             `json:"file_name"`
	FileSize      int64              `json:"file_size"`
	FilePath      string             `json:"file_path"`
	Type          JobType            `json:"type"`
	Status        JobStatus          `json:"status"`
	StatusMessage string             `json:"status_message,omitempty"`
	Progress      int                `json:"progress"`
	FieldMapping  map[string]string  `json:"field_mapping,omitempty"`
	MatchOptions  *MatchOptions      `json:"match_options,omitempty"`
	BatchSize     int                `json:"batch_size"`
	TotalRows     int                `json:"total_rows"`
	Results       *ImportResults     `json:"results,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
}
