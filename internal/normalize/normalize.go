package normalize

import (
	"fmt"
	"time"

	"github.com/facturacr/edocs-api/internal/classify"
	"github.com/facturacr/edocs-api/internal/keygen"
	"github.com/facturacr/edocs-api/internal/models"
	"github.com/facturacr/edocs-api/internal/xmltree"
)

// RejectionError names the required field a document is missing. Ingestion
// logs it and drops the document without aborting the batch.
type RejectionError struct {
	Field string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("missing required field %s", e.Field)
}

// Record produces the flat record for one classified document tree.
func Record(tree xmltree.TagReader, kind models.DocumentKind, channel models.Channel) (*models.FlatRecord, error) {
	rec := &models.FlatRecord{
		Clave:      tree.FindTag("Clave"),
		Channel:    channel.ID,
		Kind:       kind,
		EmisionRaw: tree.FindTag("FechaEmision"),
		CreatedAt:  time.Now(),
		Fields:     make(map[string]string, len(passthroughFields)+2*len(partyFields)),
	}
	rec.EmisionCode = keygen.EncodeEmision(rec.EmisionRaw)

	switch kind {
	case models.KindResponseMessage:
		normalizeResponse(rec)
	case models.KindImportDeclaration, models.KindLawAuthorized:
		if err := normalizeKeyed(tree, rec); err != nil {
			return nil, err
		}
	default:
		if err := normalizeInvoice(tree, rec, channel); err != nil {
			return nil, err
		}
	}

	collectPassthrough(tree, rec)

	return rec, nil
}

// normalizeResponse extracts the minimum for an acceptance/rejection/receipt
// confirmation: key and timestamp. Response documents never get a
// Sale/Purchase classification and are flagged out of the default view.
func normalizeResponse(rec *models.FlatRecord) {
	rec.IsResponse = true
	rec.Condition = models.EmptyMarker
}

// normalizeInvoice handles the generic invoice shape, which includes every
// unrecognized root: extraction is best-effort, but Clave and FechaEmision
// are mandatory here.
func normalizeInvoice(tree xmltree.TagReader, rec *models.FlatRecord, channel models.Channel) error {
	if rec.Clave == "" {
		return &RejectionError{Field: "Clave"}
	}
	if rec.EmisionRaw == "" {
		return &RejectionError{Field: "FechaEmision"}
	}

	rec.Consecutive = tree.FindTag("NumeroConsecutivo")
	if len(rec.Consecutive) >= 3 {
		rec.BranchCode = rec.Consecutive[:3]
	}
	if len(rec.Consecutive) >= 10 {
		rec.DocTypeCode = rec.Consecutive[8:10]
		rec.DocTypeLabel = classify.DocTypeLabel(rec.DocTypeCode)
	}

	rec.IssuerIdent = partyIdent(tree, "Emisor")
	rec.IssuerName = tree.FindScopedTag("Emisor", "Nombre")
	rec.ReceiverIdent = partyIdent(tree, "Receptor")
	rec.ReceiverName = tree.FindScopedTag("Receptor", "Nombre")
	rec.ActivityCode = tree.FindTag("CodigoActividad")
	rec.Condition = Condition(rec.IssuerIdent, rec.ReceiverIdent, channel.IdentNumber)

	return nil
}

// normalizeKeyed handles import declarations and law-authorized documents.
// These carry no consecutive number: branch and date come from fixed
// positions of the 50-digit key instead.
func normalizeKeyed(tree xmltree.TagReader, rec *models.FlatRecord) error {
	if rec.Clave == "" {
		// Import declarations and law-authorized documents may arrive
		// without a key; mint one from the emission date and issuer.
		clave, err := mintClave(tree, rec)
		if err != nil {
			return err
		}
		rec.Clave = clave
	}

	if len(rec.Clave) >= 24 {
		rec.BranchCode = rec.Clave[21:24]
	}
	if len(rec.Clave) >= 9 {
		rec.Day = rec.Clave[3:5]
		rec.Month = rec.Clave[5:7]
		rec.Year = rec.Clave[7:9]
	}

	rec.IssuerIdent = partyIdent(tree, "Emisor")
	rec.IssuerName = tree.FindScopedTag("Emisor", "Nombre")
	rec.ReceiverIdent = tree.FindScopedTag("Receptor", "Numero")
	if rec.ReceiverIdent == "" {
		// Fallback to the generic identification path some issuers emit.
		rec.ReceiverIdent = tree.FindScopedTag("Identificacion", "Numero")
	}
	rec.ReceiverName = tree.FindScopedTag("Receptor", "Nombre")
	rec.ActivityCode = tree.FindTag("CodigoActividad")

	if rec.Kind == models.KindImportDeclaration {
		rec.Condition = models.ConditionImport
	} else {
		rec.Condition = models.ConditionLawAuthorized
	}

	return nil
}

// Condition compares issuer and receiver identifications against the
// operating channel. Exactly one label is produced for any triple.
func Condition(issuerIdent, receiverIdent, channelIdent string) string {
	switch {
	case channelIdent == "":
		return models.ConditionIndeterminate
	case issuerIdent == channelIdent && receiverIdent != channelIdent:
		return models.ConditionSale
	case receiverIdent == channelIdent && issuerIdent != channelIdent:
		return models.ConditionPurchase
	default:
		return models.ConditionIndeterminate
	}
}

func mintClave(tree xmltree.TagReader, rec *models.FlatRecord) (string, error) {
	issuer := partyIdent(tree, "Emisor")
	if issuer == "" {
		return "", &RejectionError{Field: "Clave"}
	}

	refDate := time.Now()
	if t, ok := keygen.DecodeEmision(rec.EmisionCode); ok {
		refDate = t
	}

	purpose := keygen.PurposeImport
	if rec.Kind == models.KindLawAuthorized {
		purpose = keygen.PurposeLawAuthorized
	}

	clave, err := keygen.GenerateClave(refDate, issuer, purpose)
	if err != nil {
		return "", &RejectionError{Field: "Clave"}
	}
	return clave, nil
}

func partyIdent(tree xmltree.TagReader, party string) string {
	if v := tree.FindScopedTag(party, "Numero"); v != "" {
		return v
	}
	return tree.FindScopedTag(party, "NumeroIdentificacion")
}

func collectPassthrough(tree xmltree.TagReader, rec *models.FlatRecord) {
	for _, name := range passthroughFields {
		if v := tree.FindTag(name); v != "" {
			rec.Fields[name] = v
		} else {
			rec.Fields[name] = models.EmptyMarker
		}
	}

	for _, party := range []string{"Emisor", "Receptor"} {
		for _, name := range partyFields {
			key := party + name
			if v := tree.FindScopedTag(party, name); v != "" {
				rec.Fields[key] = v
			} else {
				rec.Fields[key] = models.EmptyMarker
			}
		}
	}
}
