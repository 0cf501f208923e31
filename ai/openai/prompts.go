package openai

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "caption": {
      "type": "string"
    },
    "tags": {
      "type": "array",
      "items": {
        "type": "string",
        "pattern": "^[a-z]+( [a-z]+)*$"
      }
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["caption", "tags", "confidence"],
  "additionalProperties": false
}`

const analysisPrompt = `Describe the attached photo and return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + analysisResponseSchema + `

Rules:
- The caption is one natural-language sentence describing the main subject and setting.
- Tags are lowercase, 1-2 words each, most relevant first, at most 10.
- Confidence reflects how certain you are that the caption is accurate, from 0 to 1.
- Describe only what is visible. Do not hallucinate names, places, or dates.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Output:
{
  "caption": "a golden retriever running across a sandy beach at sunset",
  "tags": ["dog", "beach", "sunset"],
  "confidence": 0.92
}`
