package archive

import "context"

// Archive defines the contract for long-term storage of rendered reports.
type Archive interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ReportName is the archive object name for a user's weekly report.
func ReportName(userID, weekStart string) string {
	return "weekly/" + userID + "/" + weekStart + ".md"
}
