package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Ledger gateway
	CodeLedgerUnavailable:     "Ledger gateway request failed",
	CodeLedgerPaginationLimit: "Ledger pagination exceeded the page limit",
	CodeLedgerPreviewFailed:   "Transaction preview failed",
	CodeMalformedNFTData:      "Non-fungible data does not match the expected schema",
	CodeInvalidAccount:        "Invalid account address",

	// Protocols and pricing
	CodeProtocolUnavailable:   "Protocol API request failed",
	CodePositionUnresolved:    "Position could not be resolved to underlying tokens",
	CodePriceTableUnavailable: "Token price table could not be loaded",
	CodePriceMissing:          "No price for resource",

	// Math and manifests
	CodeInvalidTick:      "Tick out of range",
	CodeInvalidPrice:     "Price must be positive",
	CodeInvalidRange:     "Invalid liquidity range",
	CodeManifestInvalid:  "Manifest could not be built",
	CodeStrategyNotFound: "Strategy position not found",

	CodeCacheError:  "Cache operation failed",
	CodeCircuitOpen: "Circuit breaker is open",
}
