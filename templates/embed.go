package templates

import "embed"

// InvoiceFS contains the invoice document template rendered into PDFs.
//
//go:embed invoice.html
var InvoiceFS embed.FS
