package feedmirror

import "github.com/goliatone/go-feedmirror/internal/runtimeconfig"

var (
	ErrRemoteBaseURLRequired    = runtimeconfig.ErrRemoteBaseURLRequired
	ErrRemoteTimeoutInvalid     = runtimeconfig.ErrRemoteTimeoutInvalid
	ErrMirrorDirRequired        = runtimeconfig.ErrMirrorDirRequired
	ErrFeedWindowInvalid        = runtimeconfig.ErrFeedWindowInvalid
	ErrFeedFileRequired         = runtimeconfig.ErrFeedFileRequired
	ErrHistoryBackendUnknown    = runtimeconfig.ErrHistoryBackendUnknown
	ErrHistoryToleranceInvalid  = runtimeconfig.ErrHistoryToleranceInvalid
	ErrHistoryLedgerDSNRequired = runtimeconfig.ErrHistoryLedgerDSNRequired
	ErrReadmePathRequired       = runtimeconfig.ErrReadmePathRequired
	ErrSnapshotDirRequired      = runtimeconfig.ErrSnapshotDirRequired
	ErrExportDirRequired        = runtimeconfig.ErrExportDirRequired
	ErrMetricsTextfileRequired  = runtimeconfig.ErrMetricsTextfileRequired
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
	ErrCommandTimeoutInvalid    = runtimeconfig.ErrCommandTimeoutInvalid
)

type (
	Config         = runtimeconfig.Config
	RemoteConfig   = runtimeconfig.RemoteConfig
	MirrorConfig   = runtimeconfig.MirrorConfig
	FeedsConfig    = runtimeconfig.FeedsConfig
	HistoryConfig  = runtimeconfig.HistoryConfig
	ReadmeConfig   = runtimeconfig.ReadmeConfig
	SnapshotConfig = runtimeconfig.SnapshotConfig
	ExportConfig   = runtimeconfig.ExportConfig
	MetricsConfig  = runtimeconfig.MetricsConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	CommandsConfig = runtimeconfig.CommandsConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
