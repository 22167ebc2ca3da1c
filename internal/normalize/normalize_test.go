package normalize

import (
	"errors"
	"os"
	"testing"

	"github.com/facturacr/edocs-api/internal/classify"
	"github.com/facturacr/edocs-api/internal/models"
	"github.com/facturacr/edocs-api/internal/xmltree"
)

func loadTree(t *testing.T, name string) xmltree.TagReader {
	t.Helper()

	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	tree, err := xmltree.Parse(data)
	if err != nil {
		t.Fatalf("failed to parse fixture %s: %v", name, err)
	}
	return tree
}

func TestRecordInvoiceSale(t *testing.T) {
	tree := loadTree(t, "factura.xml")
	channel := models.Channel{ID: "ch-1", IdentNumber: "3101123456"}

	rec, err := Record(tree, classify.Kind(tree.RootTag()), channel)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if rec.Kind != models.KindInvoice {
		t.Errorf("kind = %q", rec.Kind)
	}
	if rec.Clave != "50615032400310112345600100001010000000123199999999" {
		t.Errorf("clave = %q", rec.Clave)
	}
	if rec.EmisionCode != "240315090530" {
		t.Errorf("emision code = %q", rec.EmisionCode)
	}
	if rec.BranchCode != "001" {
		t.Errorf("branch = %q, want 001", rec.BranchCode)
	}
	if rec.DocTypeCode != "01" || rec.DocTypeLabel != "Electronic invoice" {
		t.Errorf("doc type = %q/%q", rec.DocTypeCode, rec.DocTypeLabel)
	}
	if rec.IssuerIdent != "3101123456" || rec.ReceiverIdent != "3102654321" {
		t.Errorf("idents = %q/%q", rec.IssuerIdent, rec.ReceiverIdent)
	}
	// Issuer matches the channel: this is a sale.
	if rec.Condition != models.ConditionSale {
		t.Errorf("condition = %q, want %q", rec.Condition, models.ConditionSale)
	}
	if rec.ActivityCode != "620100" {
		t.Errorf("activity code = %q", rec.ActivityCode)
	}
	if rec.IsResponse {
		t.Error("invoice flagged as response")
	}

	if got := rec.Fields["TotalComprobante"]; got != "33900.00" {
		t.Errorf("TotalComprobante = %q", got)
	}
	if got := rec.Fields["EmisorNombreComercial"]; got != "El Roble" {
		t.Errorf("EmisorNombreComercial = %q", got)
	}
	// Tags the document does not carry read as the empty marker.
	if got := rec.Fields["TotalIVADevuelto"]; got != models.EmptyMarker {
		t.Errorf("TotalIVADevuelto = %q, want %q", got, models.EmptyMarker)
	}
	if got := rec.Fields["ReceptorProvincia"]; got != models.EmptyMarker {
		t.Errorf("ReceptorProvincia = %q, want %q", got, models.EmptyMarker)
	}
}

func TestRecordInvoiceAsPurchase(t *testing.T) {
	tree := loadTree(t, "factura.xml")
	// Channel is the receiver this time.
	channel := models.Channel{ID: "ch-2", IdentNumber: "3102654321"}

	rec, err := Record(tree, models.KindInvoice, channel)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Condition != models.ConditionPurchase {
		t.Errorf("condition = %q, want %q", rec.Condition, models.ConditionPurchase)
	}
}

func TestRecordImportDeclaration(t *testing.T) {
	tree := loadTree(t, "importacion.xml")
	channel := models.Channel{ID: "ch-1", IdentNumber: "3101123456"}

	rec, err := Record(tree, classify.Kind(tree.RootTag()), channel)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if rec.Kind != models.KindImportDeclaration {
		t.Errorf("kind = %q", rec.Kind)
	}
	// Branch comes from key positions 22-24, not from a consecutive number.
	if rec.BranchCode != "001" {
		t.Errorf("branch = %q, want 001", rec.BranchCode)
	}
	if rec.Day != "15" || rec.Month != "03" || rec.Year != "24" {
		t.Errorf("date segments = %s/%s/%s", rec.Day, rec.Month, rec.Year)
	}
	// Condition short-circuits to the kind label, never Sale/Purchase.
	if rec.Condition != models.ConditionImport {
		t.Errorf("condition = %q, want %q", rec.Condition, models.ConditionImport)
	}
	if rec.ReceiverIdent != "3101123456" {
		t.Errorf("receiver ident = %q", rec.ReceiverIdent)
	}
}

func TestRecordImportDeclarationMintsMissingKey(t *testing.T) {
	tree, err := xmltree.Parse([]byte(`<FacturaImportacion>
  <FechaEmision>2024-03-15T09:05:30-06:00</FechaEmision>
  <Emisor><Nombre>Aduana SA</Nombre><Identificacion><Numero>3101999888</Numero></Identificacion></Emisor>
</FacturaImportacion>`))
	if err != nil {
		t.Fatal(err)
	}
	channel := models.Channel{ID: "ch-1", IdentNumber: "3101123456"}

	rec, err := Record(tree, classify.Kind(tree.RootTag()), channel)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if len(rec.Clave) != 50 {
		t.Fatalf("minted clave length = %d, want 50", len(rec.Clave))
	}
	// Minted key carries the emission date at the fixed positions the
	// normalizer reads back.
	if rec.Day != "15" || rec.Month != "03" || rec.Year != "24" {
		t.Errorf("date segments = %s/%s/%s", rec.Day, rec.Month, rec.Year)
	}
	if rec.Clave[9:21] != "003101999888" {
		t.Errorf("ident segment = %q", rec.Clave[9:21])
	}
	if rec.BranchCode != "001" {
		t.Errorf("branch = %q", rec.BranchCode)
	}

	// Without an issuer identification no key can be minted.
	bare, err := xmltree.Parse([]byte(`<FacturaImportacion><FechaEmision>2024-03-15T09:05:30</FechaEmision></FacturaImportacion>`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Record(bare, models.KindImportDeclaration, channel)
	var rej *RejectionError
	if !errors.As(err, &rej) || rej.Field != "Clave" {
		t.Errorf("missing issuer: got %v", err)
	}
}

func TestRecordResponseMessage(t *testing.T) {
	tree := loadTree(t, "mensaje_receptor.xml")
	channel := models.Channel{ID: "ch-1", IdentNumber: "3101123456"}

	rec, err := Record(tree, classify.Kind(tree.RootTag()), channel)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if !rec.IsResponse {
		t.Error("response message not flagged")
	}
	if rec.Condition != models.EmptyMarker {
		t.Errorf("condition = %q, want empty marker", rec.Condition)
	}
	if rec.Clave == "" || rec.EmisionCode == "" {
		t.Errorf("minimal extraction incomplete: clave=%q emision=%q", rec.Clave, rec.EmisionCode)
	}
	if got := rec.Fields["DetalleMensaje"]; got != "Aceptado" {
		t.Errorf("DetalleMensaje = %q", got)
	}
}

func TestRecordMissingRequiredFields(t *testing.T) {
	channel := models.Channel{ID: "ch-1", IdentNumber: "3101123456"}

	noClave, err := xmltree.Parse([]byte(`<FacturaElectronica><FechaEmision>2024-03-15T09:05:30</FechaEmision></FacturaElectronica>`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Record(noClave, models.KindInvoice, channel)
	var rej *RejectionError
	if !errors.As(err, &rej) || rej.Field != "Clave" {
		t.Errorf("missing Clave: got %v", err)
	}

	noFecha, err := xmltree.Parse([]byte(`<FacturaElectronica><Clave>506</Clave></FacturaElectronica>`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Record(noFecha, models.KindInvoice, channel)
	if !errors.As(err, &rej) || rej.Field != "FechaEmision" {
		t.Errorf("missing FechaEmision: got %v", err)
	}
}

func TestConditionSymmetry(t *testing.T) {
	const channel = "3101123456"
	const other = "3102654321"
	const third = "3103777777"

	tests := []struct {
		issuer, receiver string
		want             string
	}{
		{channel, other, models.ConditionSale},
		{other, channel, models.ConditionPurchase},
		{other, third, models.ConditionIndeterminate},
		{channel, channel, models.ConditionIndeterminate},
		{"", "", models.ConditionIndeterminate},
	}

	for _, tt := range tests {
		got := Condition(tt.issuer, tt.receiver, channel)
		if got != tt.want {
			t.Errorf("Condition(%q, %q) = %q, want %q", tt.issuer, tt.receiver, got, tt.want)
		}

		// Swapping issuer and receiver swaps Sale and Purchase.
		swapped := Condition(tt.receiver, tt.issuer, channel)
		switch tt.want {
		case models.ConditionSale:
			if swapped != models.ConditionPurchase {
				t.Errorf("swap of Sale gave %q", swapped)
			}
		case models.ConditionPurchase:
			if swapped != models.ConditionSale {
				t.Errorf("swap of Purchase gave %q", swapped)
			}
		default:
			if swapped != models.ConditionIndeterminate {
				t.Errorf("swap of Indeterminate gave %q", swapped)
			}
		}
	}
}
