package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	ExtractDocumentDescription = `Extract keyword values and personal information from a single document.

**When to use:** Need the numeric value that follows one or more keywords in a PDF, DOCX or DOC file, together with the name, ID prefix and age of the person the document describes.

**Why it's useful:** Keywords are matched case-insensitively in any script (Latin, Cyrillic or mixed). Values written with thousands separators such as "3,500" are flagged as ambiguous instead of being silently reinterpreted.

**Arguments:**
• path: document path, absolute or relative to the document directory
• keywords: comma-separated keywords, e.g. "HGL, WBC, RBC" (falls back to the configured keywords)

**Examples:**
• Lab report values: "Extract HGL, WBC and RBC from report-2024-03.pdf"
• Cyrillic forms: "Extract Хемоглобин from изследване.docx"

**Output:** a plain text report with Personal Information, a keyword grid with "Not found" and "[Ambiguous]" markers, a processing summary, warnings and errors.

**Best practices:** Run validate_document first on files from unknown sources. Scanned PDFs without a text layer are rejected.`

	ExtractBatchDescription = `Extract keyword values from several documents and combine them into one table.

**When to use:** Comparing the same measurements across many reports, one row per document.

**Why it's useful:** Each row starts with the subject's initials and age followed by one column per keyword. A document that cannot be read becomes a warning and the rest of the batch continues.

**Arguments:**
• paths: comma-separated document paths, processed in the given order
• directory: used when paths is empty; every supported document in it is processed in name order
• keywords: comma-separated keywords (falls back to the configured keywords)
• write_output: "true" to also save the table to the output directory

**Examples:**
• "Build a table of HGL and WBC for all reports in patients/"
• "Compare RBC across a.pdf, b.docx and c.doc"

**Output:** semicolon-separated aligned table, e.g.
Initials; Age; HGL; WBC  ;
JS      ; 45 ; 140; 5.5  ;

**Best practices:** Use list_documents to check which files will be picked up from a directory.`

	ListDocumentsDescription = `List the supported documents (PDF, DOCX, DOC) in a directory.

**When to use:** Discovering which files are available before extracting from them.

**Arguments:**
• directory: directory to search (defaults to the configured document directory)
• query: optional case-insensitive filter on file names

**Examples:**
• "List all documents in the reports folder"
• "Find documents whose name contains 2024"

**Common workflows:**
1. list_documents → validate_document → extract_document
2. list_documents → extract_batch with the same directory`

	ValidateDocumentDescription = `Check that a document can be read before extracting from it.

**When to use:** Verifying uploads or files from unknown sources.

**Checks:** supported extension, file exists and is not empty, size limit, password protection, and presence of extractable text.

**Examples:**
• "Is scan-001.pdf readable?"
• "Validate contract.docx before extraction"

**Best practices:** A document rejected for having no text is usually a scan and needs OCR first.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"extract_document":  ExtractDocumentDescription,
	"extract_batch":     ExtractBatchDescription,
	"list_documents":    ListDocumentsDescription,
	"validate_document": ValidateDocumentDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the available tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
