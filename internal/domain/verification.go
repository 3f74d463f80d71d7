package domain

// VerificationBlob is the opaque material clients need to test a candidate
// against the protected document. It is produced once at startup.
type VerificationBlob string

// DocumentType selects the external extraction tool
type DocumentType string

const (
	DocumentTypeOffice       DocumentType = "1"
	DocumentTypeOpenDocument DocumentType = "2"
	DocumentTypePDF          DocumentType = "3"
)

func (d DocumentType) String() string {
	switch d {
	case DocumentTypeOffice:
		return "Microsoft Office"
	case DocumentTypeOpenDocument:
		return "OpenDocument"
	case DocumentTypePDF:
		return "Portable Document Format"
	default:
		return "unknown"
	}
}
