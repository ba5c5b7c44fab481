package domain

// BulkSMSResult is the per-recipient outcome of a bulk SMS send.
type BulkSMSResult struct {
	To  string
	SID string
	Err error
}
