package descriptions

import "sort"

// Tool names exposed by the MCP server
const (
	ToolPackingListExtract = "packing_list_extract"
	ToolValidateFile       = "pdf_validate_file"
	ToolSearchDirectory    = "pdf_search_directory"
	ToolDGDeclaration      = "dg_declaration_generate"
	ToolPreadvise          = "preadvise_generate"
	ToolServerInfo         = "packlist_server_info"
)

const (
	PackingListExtractDescription = `Extract the line items of a shipping packing list PDF as JSON.

**When to use:** A packing list PDF arrived and its items (description, quantity, box count, net and gross weight) are needed as data.

**How it works:** The largest ruled table on each page is read first; item lines are matched by their "<boxes> <qty> <unit>" anchor and weight pairs are paired with items in document order. Documents without tables fall back to reading every text line.

**Examples:**
• "Extract the items from inbox/PL-2024-001.pdf"
• "Re-run PL-2024-001.pdf in text mode, the table layout is broken"

**Result:** {"ok":true,"fileName":...,"items":[...],"numberOfItemsExtracted":N,"debug":{...}}. A scanned PDF without a text layer returns ok:false with an explanatory error.

**Best practices:** Check debug.unresolvedItems and debug.discardedWeightPairs; non-zero values mean the weights column did not line up with the items.`

	ValidateFileDescription = `Verify that a file is a readable, unencrypted PDF before extracting it.

**When to use:** Before extraction in automated workflows, or to explain why an extraction failed.

**Result:** Page count and PDF version when the file is valid, the reason otherwise.`

	SearchDirectoryDescription = `List the packing list PDFs in the served directory.

**When to use:** To discover which documents are waiting in the inbox before extracting them.

**Examples:**
• "List all PDFs in the inbox"
• "Find packing lists for ACME" (query: "acme")

**Best practices:** Queries match file name words case-insensitively; leave the query empty to list everything.`

	DGDeclarationDescription = `Fill the dangerous-goods declaration spreadsheet template.

**When to use:** A DG declaration (.xlsx) is needed for a shipment whose items carry UN number, class, packing group and related fields.

**Inputs:** template and output paths (.xlsx) inside the served directory, and a payload: either inline JSON or the path of a JSON file. The payload has an "items" array; the JSON returned by packing_list_extract, enriched with DG fields, is accepted as is.

**Behavior:** The first item whose dgStatus is DG/YES/Y/TRUE is used, otherwise the first item. Values are written upper-cased into fixed cells of the "DG Form" sheet.`

	PreadviseDescription = `Fill the pre-advice notice word template.

**When to use:** A pre-advice (.docx) must be sent for a container booking.

**Inputs:** template and output paths (.docx) inside the served directory, and a payload (inline JSON or a JSON file path) with firstPort, secondPort, bookingNumber, vesselVoyage, containerSizeType, containerNumbers, sealNumbers, tareWeightKgs, trucker, plateNumber, cargoWeightKgs and unnoImoClass.

**Behavior:** {{TOKEN}} placeholders are replaced in the body, tables, headers and footers. Cargo weight defaults to the sum of item gross weights and the UN/class line to the list built from DG items. Placeholders not found in the body are reported.`

	ServerInfoDescription = `Show the server version, served directory, available tools and the PDFs currently in the directory.

**When to use:** At the start of a session, to learn what the server can do and where files must live.`
)

// ToolInfo summarises a tool for the server info listing
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolPackingListExtract: PackingListExtractDescription,
	ToolValidateFile:       ValidateFileDescription,
	ToolSearchDirectory:    SearchDirectoryDescription,
	ToolDGDeclaration:      DGDeclarationDescription,
	ToolPreadvise:          PreadviseDescription,
	ToolServerInfo:         ServerInfoDescription,
}

// Catalog lists the tools in the order they are registered
func Catalog() []ToolInfo {
	return []ToolInfo{
		{ToolPackingListExtract, "Extract packing list items as JSON", "Call with the PDF path", "path (required), mode (auto|table|text)"},
		{ToolValidateFile, "Check a PDF is readable", "Call before extracting unknown files", "path (required)"},
		{ToolSearchDirectory, "List PDFs in the served directory", "Call to discover inbox files", "query (optional)"},
		{ToolDGDeclaration, "Fill the DG declaration spreadsheet", "Call with template, output and payload", "template, output, payload (required)"},
		{ToolPreadvise, "Fill the pre-advice word document", "Call with template, output and payload", "template, output, payload (required)"},
		{ToolServerInfo, "Describe this server", "Call first in a session", "none"},
	}
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
