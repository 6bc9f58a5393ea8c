package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Form Tools
	PDFInspectFormDescription = `List every field of a PDF form with the names and values it accepts.

**When to use:** Before filling a form, to learn the exact qualified field names, their input types and the options of checkboxes, radios and choice fields.

**Why it's useful:** Fill values are keyed by qualified name (for example "Applicant.Name[0]"), and buttons only accept their own option tokens. Inspecting first avoids field-not-found and invalid-value errors.

**Examples:**
• Discover a template: "Show me the fields of w9-template.pdf"
• Check options: "Which values does the Filing Status radio group in 1040.pdf accept?"
• Read back a fill: "What is currently entered in filled-application.pdf?"

**Output per field:** qualified_name, label, input_type (text, textarea, password, checkbox, radio, select, combo, button, signature), required, read_only, options, value, rect, page.

**Best practices:** Always inspect before the first fill of an unfamiliar template; radio and checkbox options are reported with a leading '/'.`

	PDFFillFormDescription = `Fill a PDF form with values and write the result to a new file.

**When to use:** Entering data into an interactive PDF form: applications, tax forms, contracts, onboarding packets.

**Why it's useful:** Generates real appearance streams for every widget, so the filled values show up in every viewer and in print, not only in viewers that regenerate appearances.

**Values by input type:**
• text, textarea, password: a string; numbers are accepted and written as text
• checkbox: true/false, or one of its options ("/Yes" or "Yes")
• radio: one of its options, with or without the leading '/'
• select / combo: one option; multi-select lists take a list of options
• signature: a path to an image, which replaces the signature widget

Image paths are resolved like document paths: relative to the configured directory, and never outside it. Data URLs (data:image/png;base64,...) are accepted too.

**Stamps:** the reserved key ".stamps" takes a list of {"img": path, "page": 1, "rect": [left, bottom, right, top]} to draw images anywhere.

**Examples:**
• "Fill application.pdf with my name and address and save it as application-filled.pdf"
• "Tick the 'I agree' box and sign with signature.png"

**Best practices:** Every value is validated first; a single bad value fails the fill and no output is written. Long text shrinks to fit down to the configured minimum size and is reported as a warning when it still overflows.`

	PDFStampImageDescription = `Draw an image on one page of a PDF.

**When to use:** Adding a logo, seal, signature or scanned initials at a fixed position, with or without a form.

**Why it's useful:** Works on any PDF, embeds the image once and places it inside the given rectangle, either stretched to fill it or fitted with its aspect ratio kept.

**Examples:**
• "Put company-seal.png in the bottom right corner of page 3 of contract.pdf"
• "Stamp initials.jpg on page 1 at [450, 40, 550, 80]"

**Best practices:** Coordinates are PDF points from the bottom-left corner of the page; use pdf_inspect_form to find the rect of an existing field.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before filling or stamping an unknown file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Identifies missing, oversized or corrupted files early and reports the page count.

**Examples:**
• Upload verification: "Check user-uploaded contract.pdf is valid before filling it"
• Batch safety: "Validate every template in /forms/ before a bulk fill"

**Best practices:** Run this first in automated workflows.`

	// Utility Tools
	PDFServerInfoDescription = `Get server status, available tools, layout settings and templates.

**When to use:** Starting work with the server, troubleshooting, or finding which templates are available.

**Why it's useful:** Lists the PDF files in the configured directory and reports how fills are rendered: leading, auto-size range and image scaling.

**Common workflows:**
1. Session Startup: Check server info → Pick a template → Inspect it → Fill it
2. Debugging: Review the directory and size limits → Verify paths

**Best practices:** Run at the start of a session; directory contents are cached for a few minutes.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_inspect_form":  PDFInspectFormDescription,
	"pdf_fill_form":     PDFFillFormDescription,
	"pdf_stamp_image":   PDFStampImageDescription,
	"pdf_validate_file": PDFValidateFileDescription,
	"pdf_server_info":   PDFServerInfoDescription,
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
