package gemini

// DefaultModel is used when a request names no model.
const DefaultModel = "gemini-2.5-flash-image-preview"

// DefaultImageMIMEType is assumed when the provider returns inline image
// data without a MIME type.
const DefaultImageMIMEType = "image/png"

// Temperature is the fixed sampling temperature for generation requests.
const Temperature = 1.0

// ImageModels is the fixed set of model identifiers allowed for image
// generation. Selection is session-scoped, not per-message.
var ImageModels = []string{
	"gemini-2.5-flash-image-preview",
	"gemini-2.0-flash-preview-image-generation",
}

// ResolveModel maps a requested model identifier onto the allowed set,
// falling back to DefaultModel when the identifier is empty or unknown.
func ResolveModel(model string) string {
	for _, m := range ImageModels {
		if model == m {
			return m
		}
	}
	return DefaultModel
}
