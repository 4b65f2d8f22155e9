package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boardspec/extractor/internal/docstore"
	"github.com/boardspec/extractor/internal/feature"
	"github.com/boardspec/extractor/internal/model"
)

// extractionSystemPrompt drives the first full-schema pass over raw product
// text. The attribute list is appended at render time.
const extractionSystemPrompt = `You are an intelligent assistant specialized in extracting detailed information from raw product data for computer hardware, particularly embedded systems, development kits, and industrial communication devices. Your goal is to identify and extract specific attributes related to a product. Follow these guidelines:

1. Extract information for each attribute listed below.
2. Each extracted feature should contain a single, distinct piece of information, with confidence score.
3. Ensure consistency across all features and avoid contradictions.
4. For names, like product name or manufacturer name, ensure it is in clear, capital case, singular, without special characters. Use only the official name, never a code name or variant.
5. The following attributes should always be single values, not lists: name, manufacturer, form_factor, processor_architecture, processor_manufacturer, input_voltage, operating_temperature_max, operating_temperature_min.
6. If information for an attribute is not available or not applicable, use 'Not available' with a confidence score of 0.
7. For each attribute, provide:
   - "value": the extracted information.
   - "confidence": a score between 0 and 1 indicating confidence in the extraction.
8. For list-type attributes, provide items as a JSON array when data is available; otherwise use 'Not available' as a string.
9. Use the exact attribute names as provided in the JSON structure below.

Extract the following attributes:
%s

Ensure the extracted information is accurate, well formatted, and provided in the exact nested JSON structure shown above, with a confidence score for each attribute. Respond with JSON only.`

// generationSystemPrompt asks for a specific subset of attributes from
// search-result context. The skeleton of attributes to fill is appended at
// render time.
const generationSystemPrompt = `You are an AI assistant specialized in extracting product information from context.
Your task is to identify and extract only the following specific attributes, provided in the nested JSON structure below. Ensure the extracted information is accurate and provided in the same nested JSON format.

For each attribute, provide:
- "value": the extracted information.
- "confidence": a score between 0 and 1.
If information for an attribute is not found, use 'Not available' with a confidence score of 0.
Ensure that attributes like name, manufacturer, form_factor, processor_architecture, processor_manufacturer, input_voltage, operating_temperature_max, and operating_temperature_min are always single string values, not lists.

Attributes to extract:
%s`

// refinementSystemPrompt asks the model to improve a subset of attributes it
// has already produced with low confidence.
const refinementSystemPrompt = `You are an AI assistant specialized in refining product information from context.
Your task is to refine only the following specific attributes, provided in the nested JSON structure below. Ensure the refined information is accurate and provided in the same nested JSON format.

For each attribute, provide:
- "value": the refined information.
- "confidence": a score between 0 and 1.
If a feature cannot be refined, keep its current value and confidence score.

Attributes to refine:
%s`

// buildExtractionPrompt renders the system and user messages for the initial
// full-schema extraction.
func buildExtractionPrompt(rawText string) (system, user string) {
	descriptions, _ := json.MarshalIndent(model.AttributeDescriptions, "", "  ")
	system = fmt.Sprintf(extractionSystemPrompt, descriptions)
	user = "Raw product data: " + rawText
	return system, user
}

// buildGenerationPrompt renders the messages for filling the given missing
// paths from retrieved context.
func buildGenerationPrompt(context string, extracted *model.Tree, missingPaths []string) (system, user string, err error) {
	skeleton, err := json.MarshalIndent(feature.BuildSkeleton(missingPaths), "", "  ")
	if err != nil {
		return "", "", err
	}
	current, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		return "", "", err
	}
	system = fmt.Sprintf(generationSystemPrompt, skeleton)
	user = fmt.Sprintf(`Context:
%s

Extracted features so far:
%s

Please provide only the missing features based on the given context, following the same nested JSON structure as provided in 'Attributes to extract'.

Response:`, context, current)
	return system, user, nil
}

// buildRefinementPrompt renders the messages for refining the given
// low-confidence paths from retrieved context.
func buildRefinementPrompt(context string, extracted *model.Tree, lowConfPaths []string) (system, user string, err error) {
	targets, err := json.MarshalIndent(feature.Subset(extracted, lowConfPaths), "", "  ")
	if err != nil {
		return "", "", err
	}
	current, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		return "", "", err
	}
	system = fmt.Sprintf(refinementSystemPrompt, targets)
	user = fmt.Sprintf(`Context:
%s

Extracted features so far:
%s

Please refine the following low-confidence features based on the given context, following the same nested JSON structure as provided in 'Attributes to refine'.

Response:`, context, current)
	return system, user, nil
}

// joinChunks composes retrieved chunk texts into a single prompt context
// block, one chunk per line.
func joinChunks(chunks []docstore.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n")
}
