package normalize

// passthroughFields are the financial/tax tags lifted verbatim into the flat
// record for tabular display. The names are opaque pass-through keys: the
// engine attaches no semantics to them beyond lookup and display.
var passthroughFields = []string{
	"ProveedorSistemas",
	"CodigoActividad",
	"CodigoActividadEmisor",
	"CodigoActividadReceptor",
	"CondicionVenta",
	"PlazoCredito",
	"MedioPago",
	"TipoMoneda",
	"CodigoMoneda",
	"TipoCambio",

	// Invoice summary totals.
	"TotalServGravados",
	"TotalServExentos",
	"TotalServExonerado",
	"TotalMercanciasGravadas",
	"TotalMercanciasExentas",
	"TotalMercExonerada",
	"TotalGravado",
	"TotalExento",
	"TotalExonerado",
	"TotalVenta",
	"TotalDescuentos",
	"TotalVentaNeta",
	"TotalImpuesto",
	"TotalIVADevuelto",
	"TotalOtrosCargos",
	"TotalComprobante",

	// First line-item detail.
	"NumeroLinea",
	"CodigoComercial",
	"Cantidad",
	"UnidadMedida",
	"UnidadMedidaComercial",
	"Detalle",
	"PrecioUnitario",
	"MontoTotal",
	"MontoDescuento",
	"NaturalezaDescuento",
	"SubTotal",
	"BaseImponible",
	"ImpuestoNeto",
	"MontoTotalLinea",

	// Tax breakdown.
	"Codigo",
	"CodigoTarifa",
	"Tarifa",
	"FactorIVA",
	"Monto",
	"MontoExportacion",

	// Exoneration block.
	"TipoDocumento",
	"NumeroDocumento",
	"NombreInstitucion",
	"PorcentajeExoneracion",
	"MontoExoneracion",

	// Reference information block.
	"TipoDoc",
	"Razon",

	// Other charges.
	"TipoDocumentoOC",
	"Descripcion",
	"Porcentaje",
	"MontoCargo",

	// Response message specifics.
	"Mensaje",
	"DetalleMensaje",
	"MontoTotalImpuesto",
	"TotalFactura",
	"NumeroCedulaEmisor",
	"NumeroCedulaReceptor",
	"NumConsecutivoReceptor",
}

// partyFields are extracted scoped under Emisor and Receptor and stored with
// the scope name prepended (e.g. "EmisorNombreComercial").
var partyFields = []string{
	"Tipo",
	"NombreComercial",
	"CorreoElectronico",
	"Telefono",
	"Provincia",
	"Canton",
	"Distrito",
	"Barrio",
	"OtrasSenas",
}
