package constants

import "time"

const (
	AppName            = "dcalt"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/dcalt"
	Version            = "v0.3.0"

	// EnvDBConnection names the environment variable consulted for a
	// PostgreSQL connection string when none is stored in the keyring.
	EnvDBConnection = "DCALT_DB_CONNECTION"

	// DateFormat is the day bucket format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the time-of-day key format (HH:MM)
	TimeFormat = "15:04"

	// Partition database files
	MainDBFile    = "main.db"
	ArchiveDBFile = "archive.db"

	// PostgreSQL schemas backing each partition
	MainSchema    = "dcalt_main"
	ArchiveSchema = "dcalt_archive"

	// MaxDayCalories bounds a day total to the signed 16-bit range.
	MaxDayCalories = 32767

	// URIScheme is the scheme of opaque serving run references.
	URIScheme = "dcalt"

	// Shared surface
	SurfaceDirName         = "group"
	SurfaceKeyTarget       = "targetCalories"
	SurfaceKeyCurrent      = "currentCalories"
	SurfaceKeyAccent       = "accentColor"
	SurfaceCacheSizeMax    = 64 * 1024
	WidgetLockfileName     = "dcalt-widget.lock"
	WidgetExecutablePrefix = "dcalt"
	WidgetSecretHeader     = "X-Dcalt-Secret"
	WidgetRefreshInterval  = 15 * time.Minute
	ReloadCoalesceWindow   = 250 * time.Millisecond
	ReloadRequestTimeout   = 2 * time.Second

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFileSuffix = ".db"

	// DefaultCommandTimeout bounds a single CLI command's storage work.
	DefaultCommandTimeout = 30 * time.Second
)
