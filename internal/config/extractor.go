package config

import "os"

// ExtractorConfig locates the protected document and the external tools
// that turn it into verification data
type ExtractorConfig struct {
	DocType    string
	DocPath    string
	PythonBin  string
	OfficeTool string
	ODTTool    string
	PDFTool    string
}

func NewExtractorConfig() *ExtractorConfig {
	return &ExtractorConfig{
		DocType:    os.Getenv("DOC_TYPE"),
		DocPath:    os.Getenv("DOC_PATH"),
		PythonBin:  getEnv("PYTHON_BIN", "python"),
		OfficeTool: getEnv("OFFICE_TOOL", "ms-offcrypto-impl/office2john.py"),
		ODTTool:    getEnv("ODT_TOOL", "odt-impl/odt2hashes.py"),
		PDFTool:    getEnv("PDF_TOOL", "pdf-impl/pdf2john.py"),
	}
}
