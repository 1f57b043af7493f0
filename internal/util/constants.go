package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"

	// TravelTimeFormat parses a task's "HH:MM:SS" time budget.
	TravelTimeFormat = "15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeVideo       = "video/"
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedAnswerFileExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".zip", ".png", ".jpg", ".jpeg"}
	AllowedMediaExtensions      = []string{".mp4", ".mov", ".webm", ".png", ".jpg", ".jpeg", ".gif", ".mp3"}
)
