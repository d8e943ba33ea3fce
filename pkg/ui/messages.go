package ui

import (
	"time"

	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
)

// ReportMsg carries a freshly built report.
type ReportMsg struct {
	Report  domain.Report
	Elapsed time.Duration
}

// ErrorMsg is sent when building the report failed.
type ErrorMsg struct {
	Error error
}
