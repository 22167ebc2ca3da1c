package classify

import (
	"github.com/facturacr/edocs-api/internal/models"
)

// Root element literals with a dedicated handling path. Anything else is
// treated as a generic invoice-shaped document and extracted best-effort.
const (
	RootImportDeclaration = "FacturaImportacion"
	RootLawAuthorized     = "DocumentoAutorizadoLey"
	RootReceiverMessage   = "MensajeReceptor"
	RootAuthorityMessage  = "MensajeHacienda"
)

// Kind maps a root element name to a document kind. Total: unknown roots
// degrade to the invoice path, classification never fails.
func Kind(rootTag string) models.DocumentKind {
	switch rootTag {
	case RootImportDeclaration:
		return models.KindImportDeclaration
	case RootLawAuthorized:
		return models.KindLawAuthorized
	case RootReceiverMessage, RootAuthorityMessage:
		return models.KindResponseMessage
	default:
		return models.KindInvoice
	}
}

// docTypeLabels maps the two-digit document-type code embedded in a
// consecutive number (positions 9-10) to its display label.
var docTypeLabels = map[string]string{
	"01": "Electronic invoice",
	"02": "Electronic debit note",
	"03": "Electronic credit note",
	"04": "Electronic ticket",
	"05": "Acceptance confirmation",
	"06": "Partial acceptance confirmation",
	"07": "Rejection confirmation",
	"08": "Electronic purchase invoice",
	"09": "Electronic export invoice",
	"10": "Electronic payment receipt",
}

// DocTypeLabel resolves a document-type code. Unmapped codes pass through
// unchanged so an unexpected catalog extension still displays something.
func DocTypeLabel(code string) string {
	if label, ok := docTypeLabels[code]; ok {
		return label
	}
	return code
}
