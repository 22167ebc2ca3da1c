package models

import (
	"time"
)

// DocumentKind is decided solely by the root element name of the payload.
type DocumentKind string

const (
	KindInvoice           DocumentKind = "invoice"
	KindImportDeclaration DocumentKind = "import_declaration"
	KindLawAuthorized     DocumentKind = "law_authorized"
	KindResponseMessage   DocumentKind = "response_message"
)

// Condition classifies a document relative to the operating channel.
const (
	ConditionSale          = "Sale"
	ConditionPurchase      = "Purchase"
	ConditionIndeterminate = "Indeterminate"
	ConditionImport        = "Import"
	ConditionLawAuthorized = "Authorized by law"
)

// EmptyMarker is stored for fields a document does not carry.
const EmptyMarker = "-"

// Column system names understood by the filter engine and the API.
const (
	ColClave         = "clave"
	ColEmision       = "emision"
	ColKind          = "kind"
	ColConsecutive   = "consecutive"
	ColDocType       = "docType"
	ColIssuerIdent   = "issuerIdent"
	ColIssuerName    = "issuerName"
	ColReceiverIdent = "receiverIdent"
	ColReceiverName  = "receiverName"
	ColCondition     = "condition"
	ColBranch        = "branch"
	ColActivity      = "activity"
	ColDay           = "day"
	ColMonth         = "month"
	ColYear          = "year"
)

// ActionColumns are reserved for row-level buttons and are never filterable.
var ActionColumns = []string{
	"view", "downloadXML", "downloadPDF", "resend", "accept", "reject", "remove",
}

// Channel holds the identification facts of the tenant on whose behalf
// documents are classified as Sale/Purchase.
type Channel struct {
	ID          string `json:"id" db:"id"`
	IdentNumber string `json:"ident_number" db:"ident_number"`
}

// FlatRecord is the normalized row produced for one ingested document.
// Immutable after creation except for BranchName and ActivityName, which
// enrichment fills in afterwards.
type FlatRecord struct {
	Clave         string       `json:"clave" db:"clave"`
	Channel       string       `json:"channel" db:"channel"`
	Kind          DocumentKind `json:"kind" db:"kind"`
	EmisionRaw    string       `json:"emision_raw" db:"emision_raw"`
	EmisionCode   string       `json:"emision_code" db:"emision_code"`
	Consecutive   string       `json:"consecutive,omitempty" db:"consecutive"`
	DocTypeCode   string       `json:"doc_type_code,omitempty" db:"doc_type_code"`
	DocTypeLabel  string       `json:"doc_type_label,omitempty" db:"doc_type_label"`
	IssuerIdent   string       `json:"issuer_ident" db:"issuer_ident"`
	IssuerName    string       `json:"issuer_name,omitempty" db:"issuer_name"`
	ReceiverIdent string       `json:"receiver_ident" db:"receiver_ident"`
	ReceiverName  string       `json:"receiver_name,omitempty" db:"receiver_name"`
	Condition     string       `json:"condition" db:"condition"`
	BranchCode    string       `json:"branch_code,omitempty" db:"branch_code"`
	BranchName    string       `json:"branch_name,omitempty" db:"branch_name"`
	ActivityCode  string       `json:"activity_code,omitempty" db:"activity_code"`
	ActivityName  string       `json:"activity_name,omitempty" db:"activity_name"`
	Day           string       `json:"day,omitempty" db:"day"`
	Month         string       `json:"month,omitempty" db:"month"`
	Year          string       `json:"year,omitempty" db:"year"`
	IsResponse    bool         `json:"is_response" db:"is_response"`
	S3Key         string       `json:"s3_key,omitempty" db:"s3_key"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`

	// Fields holds the pass-through financial/tax values keyed by tag name.
	Fields map[string]string `json:"fields,omitempty"`
}

// Value resolves a column system name against the record. Unknown names are
// looked up in the pass-through fields. The empty marker reads as blank.
func (r *FlatRecord) Value(column string) string {
	var v string
	switch column {
	case ColClave:
		v = r.Clave
	case ColEmision:
		v = r.EmisionCode
	case ColKind:
		v = string(r.Kind)
	case ColConsecutive:
		v = r.Consecutive
	case ColDocType:
		v = r.DocTypeLabel
	case ColIssuerIdent:
		v = r.IssuerIdent
	case ColIssuerName:
		v = r.IssuerName
	case ColReceiverIdent:
		v = r.ReceiverIdent
	case ColReceiverName:
		v = r.ReceiverName
	case ColCondition:
		v = r.Condition
	case ColBranch:
		if r.BranchName != "" {
			v = r.BranchName
		} else {
			v = r.BranchCode
		}
	case ColActivity:
		if r.ActivityName != "" {
			v = r.ActivityName
		} else {
			v = r.ActivityCode
		}
	case ColDay:
		v = r.Day
	case ColMonth:
		v = r.Month
	case ColYear:
		v = r.Year
	default:
		v = r.Fields[column]
	}

	if v == EmptyMarker {
		return ""
	}
	return v
}

// BatchResult aggregates the outcome of one multi-file upload.
type BatchResult struct {
	BatchID    string    `json:"batch_id"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Rejected   int       `json:"rejected"`
	Responses  int       `json:"responses"`
	Duplicates int       `json:"duplicates"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// DatasetResponse is the assembled, filtered view returned to the caller.
type DatasetResponse struct {
	Channel string        `json:"channel"`
	Total   int           `json:"total"`
	Visible int           `json:"visible"`
	Records []*FlatRecord `json:"records"`
}

// FilterDialogResponse is the value domain offered by a filter dialog.
type FilterDialogResponse struct {
	Column string        `json:"column"`
	Values []DomainValue `json:"values"`
}

// DomainValue is one offered filter value with its checked state.
type DomainValue struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// ConfirmFilterRequest carries the values the user left checked.
type ConfirmFilterRequest struct {
	Selected []string `json:"selected"`
}

// ActivityRow is one normalized row from the tax-authority activity catalog.
type ActivityRow struct {
	Channel string `json:"channel" db:"channel"`
	Code    string `json:"code" db:"code"`
	Name    string `json:"name" db:"name"`
}
