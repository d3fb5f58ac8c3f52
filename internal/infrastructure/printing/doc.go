// Package printing renders proforma invoices to HTML with html/template and
// to PDF with headless Chrome over the DevTools protocol (chromedp).
//
//	engine, err := NewTemplateEngine(WithCompanyName("GCS"))
//	html, err := engine.RenderInvoice(NewInvoiceDocument(invoice, client, contact))
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html, Page: printing.DefaultPageSetup()})
package printing
