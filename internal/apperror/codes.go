package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Ledger gateway errors
const (
	CodeLedgerUnavailable     Code = "LEDGER_UNAVAILABLE"
	CodeLedgerPaginationLimit Code = "LEDGER_PAGINATION_LIMIT"
	CodeLedgerPreviewFailed   Code = "LEDGER_PREVIEW_FAILED"
	CodeMalformedNFTData      Code = "MALFORMED_NFT_DATA"
	CodeInvalidAccount        Code = "INVALID_ACCOUNT"
)

// Protocol and pricing errors
const (
	CodeProtocolUnavailable   Code = "PROTOCOL_UNAVAILABLE"
	CodePositionUnresolved    Code = "POSITION_UNRESOLVED"
	CodePriceTableUnavailable Code = "PRICE_TABLE_UNAVAILABLE"
	CodePriceMissing          Code = "PRICE_MISSING"
)

// Liquidity math and manifest errors
const (
	CodeInvalidTick      Code = "INVALID_TICK"
	CodeInvalidPrice     Code = "INVALID_PRICE"
	CodeInvalidRange     Code = "INVALID_RANGE"
	CodeManifestInvalid  Code = "MANIFEST_INVALID"
	CodeStrategyNotFound Code = "STRATEGY_NOT_FOUND"
)

// Infrastructure errors
const (
	CodeCacheError  Code = "CACHE_ERROR"
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
