package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPositionNotFound indicates that the ledger has no entry for the requested ticker.
	ErrPositionNotFound = errors.New("position not found")

	// ErrSettingNotFound indicates that no value is stored under the given key.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrUnknownProvider indicates that a quote provider name is not recognised.
	ErrUnknownProvider = errors.New("unknown quote provider")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrUnsupportedFormat indicates that an uploaded file cannot be read by any extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoCandidates indicates that an import produced no valid row.
	ErrNoCandidates = errors.New("no importable rows found")

	// ErrMissingSecretKey indicates that a secret must be stored but no encryption key is configured.
	ErrMissingSecretKey = errors.New("secret key is not configured")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToGetPortfolio         = errors.New("failed to get portfolio")
	ErrFailedToGetPortfolioHistory  = errors.New("failed to get portfolio history")
	ErrFailedToGetDividends         = errors.New("failed to get dividends")
	ErrFailedToRefreshQuotes        = errors.New("failed to refresh quotes")
	ErrFailedToImportTransactions   = errors.New("failed to import transactions")
	ErrFailedToGetVersionInfo       = errors.New("failed to get version information")
	ErrFailedToRetrieveSettings     = errors.New("failed to retrieve settings")

	// ErrProviderUnavailable indicates that no quote provider returned a price.
	ErrProviderUnavailable = errors.New("quote providers unavailable")

	// ErrMirrorDisabled indicates that a sync was requested without a configured mirror.
	ErrMirrorDisabled = errors.New("remote mirror is not configured")
)
