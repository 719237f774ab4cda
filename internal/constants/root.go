package constants

const (
	AppName            = "djournal"
	DefaultKeyringUser = "database-connection"
	SecretKeyringUser  = "token-signing-secret"
	DefaultConfigDir   = "~/.config/djournal"
	DefaultDBPath      = "~/.config/djournal/djournal.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Today is the keyword accepted anywhere a date is expected
	Today = "today"

	// MaxImageBytes is the largest decoded entry image accepted (20 MiB)
	MaxImageBytes = 20 * 1024 * 1024

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "djournal-"
	BackupFileSuffix = ".db"

	// Server lockfile
	ServerLockfileName = "djournal-server.lock"

	// Export formats
	FormatMarkdown = "md"
	FormatPDF      = "pdf"

	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypePDF      = "application/pdf"
)
