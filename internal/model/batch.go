package model

import "fmt"

// BatchFailure records one transaction that could not be processed in a
// batch. Failures never stop the batch outside of reprocessing.
type BatchFailure struct {
	TransactionID int64
	Reason        string
}

func (f BatchFailure) String() string {
	return fmt.Sprintf("transaction %d: %s", f.TransactionID, f.Reason)
}

// BatchResult reports the outcome of classify-all, generate-all, and
// reprocess operations. Nothing fails silently: every skipped or failed
// transaction is counted, and failures carry reasons for follow-up.
type BatchResult struct {
	Processed           int
	Classified          int
	Unclassified        int
	Generated           int
	SkippedExisting     int
	SkippedUnclassified int
	Failed              int
	Failures            []BatchFailure
}

// Fail records a per-transaction failure.
func (r *BatchResult) Fail(txID int64, reason string) {
	r.Failed++
	r.Failures = append(r.Failures, BatchFailure{TransactionID: txID, Reason: reason})
}
