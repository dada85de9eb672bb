package models

import "time"

// EntityType identifies the class of sensitive data a span covers.
type EntityType string

// Supported entity types. The set is closed: the catalog rejects patterns for
// unknown types and every type carries exactly one placeholder.
const (
	EntityPatientName EntityType = "PATIENT_NAME"
	EntityPhone       EntityType = "PHONE"
	EntityEmail       EntityType = "EMAIL"
	EntityAddress     EntityType = "ADDRESS"
	EntityPostalCode  EntityType = "POSTAL_CODE"
	EntityDOB         EntityType = "DOB"
	EntityProvince    EntityType = "PROVINCE"
	EntityMRN         EntityType = "MEDICAL_RECORD_NUMBER"
	EntityCreditCard  EntityType = "CREDIT_CARD"
	EntityBankAccount EntityType = "BANK_ACCOUNT"
	EntityBankName    EntityType = "BANK_NAME"
	EntityTransaction EntityType = "TRANSACTION_ID"
)

// Provincial health number types, one per Canadian province and territory.
const (
	EntityONHealth EntityType = "ON_HCN"
	EntityBCHealth EntityType = "BC_PHN"
	EntityQCHealth EntityType = "QC_RAMQ"
	EntityABHealth EntityType = "AB_PHN"
	EntitySKHealth EntityType = "SK_HSN"
	EntityMBHealth EntityType = "MB_PHIN"
	EntityNSHealth EntityType = "NS_HCN"
	EntityNBHealth EntityType = "NB_MEDICARE"
	EntityNLHealth EntityType = "NL_MCP"
	EntityPEHealth EntityType = "PE_HEALTH"
	EntityNTHealth EntityType = "NT_HSN"
	EntityNUHealth EntityType = "NU_HEALTH"
	EntityYTHealth EntityType = "YT_YHCIP"
)

// HealthNumberTypes lists the provincial health number entity types.
func HealthNumberTypes() []EntityType {
	return []EntityType{
		EntityONHealth, EntityBCHealth, EntityQCHealth, EntityABHealth,
		EntitySKHealth, EntityMBHealth, EntityNSHealth, EntityNBHealth,
		EntityNLHealth, EntityPEHealth, EntityNTHealth, EntityNUHealth,
		EntityYTHealth,
	}
}

// AllEntityTypes lists every entity type the engine can emit.
func AllEntityTypes() []EntityType {
	types := []EntityType{
		EntityPatientName, EntityPhone, EntityEmail, EntityAddress,
		EntityPostalCode, EntityDOB, EntityProvince, EntityMRN,
		EntityCreditCard, EntityBankAccount, EntityBankName, EntityTransaction,
	}
	return append(types, HealthNumberTypes()...)
}

// Valid reports whether t belongs to the closed entity-type set.
func (t EntityType) Valid() bool {
	for _, known := range AllEntityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Span is a half-open byte range [Start, End) over the original text.
type Span struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	EntityType EntityType `json:"entity_type"`
	Score      float64    `json:"score"`
	RuleName   string     `json:"rule_name"`
}

// Length returns the number of bytes the span covers.
func (s Span) Length() int {
	return s.End - s.Start
}

// Overlaps reports whether the two ranges intersect on at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Metadata summarizes a redaction run.
type Metadata struct {
	Count      int                `json:"count"`
	Types      map[EntityType]int `json:"types"`
	EngineName string             `json:"engine_name"`
}

// RedactionResult is the outcome of a single redaction request. Original is
// returned unaltered; Redacted has each span replaced by its placeholder.
type RedactionResult struct {
	Original string   `json:"original"`
	Redacted string   `json:"redacted"`
	Spans    []Span   `json:"spans"`
	Metadata Metadata `json:"metadata"`
}

// RedactRequest is the API request body for the redact operation.
type RedactRequest struct {
	Text string `json:"text"`
}

// RedactionEvent is an audit record for one redaction request. It carries
// metadata only: no fragment of the processed text is ever stored.
type RedactionEvent struct {
	ID           string             `json:"id"`
	Recorded     time.Time          `json:"recorded"`
	TextLength   int                `json:"text_length"`
	SpanCount    int                `json:"span_count"`
	Types        map[EntityType]int `json:"types,omitempty"`
	Duration     time.Duration      `json:"duration_ns"`
	Outcome      string             `json:"outcome"`
	SkippedRules []string           `json:"skipped_rules,omitempty"`
}

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
