package model

// VersionInfo contains version and feature information for the application.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	DbVersion        string          `json:"db_version"`
	Features         map[string]bool `json:"features"`
	Providers        []string        `json:"providers"`
	PendingSync      int             `json:"pending_sync"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message,omitempty"`
}

// ProviderSetting reports whether a quote provider has a token and where it comes from.
type ProviderSetting struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"` // "env" or "stored"
}

// SettingsResponse is returned by GET /api/settings.
type SettingsResponse struct {
	ReportingCurrency string            `json:"reportingCurrency"`
	Providers         []ProviderSetting `json:"providers"`
	Encryption        bool              `json:"encryption"`
}
