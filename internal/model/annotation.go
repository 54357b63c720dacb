package model

// AnnotationCode classifies a recoverable issue recorded during a run.
type AnnotationCode string

// Annotation code constants.
const (
	CodeParseWarning        AnnotationCode = "PARSE_WARNING"
	CodeDuplicateColumn     AnnotationCode = "DUPLICATE_COLUMN"
	CodeEncodingFallback    AnnotationCode = "ENCODING_FALLBACK"
	CodeUnmappedItem        AnnotationCode = "UNMAPPED_ITEM"
	CodeOutOfWindow         AnnotationCode = "OUT_OF_WINDOW_ROW"
	CodeMissingForm         AnnotationCode = "MISSING_FORM"
	CodeBankedAmountPresent AnnotationCode = "BANKED_AMOUNT_PRESENT"
)

// Severity grades a discrepancy flag or annotation.
type Severity string

// Severity constants.
const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// Annotation is a recoverable issue surfaced on the final report so managers
// can see why a figure might be approximate. Row-level problems never abort a
// run; they accumulate here instead.
type Annotation struct {
	Code     AnnotationCode
	Severity Severity
	Message  string
	File     string
}
