package main

import (
	"github.com/pdfwala/pdfops/internal/command"
	"github.com/pdfwala/pdfops/internal/command/pdf"
)

func main() {
	command.Main("pdfops", "Merge, split, organize, watermark and number PDF files", pdf.Commands()...)
}
