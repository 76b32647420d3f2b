package enrich

import "fmt"

const promptTemplate = `You are a zoologist API. I will give you an animal name.
You must return a valid JSON object with the following fields:
- "common_name": The capitalized common name.
- "scientific_name": The Latin scientific name.
- "fun_facts": A list of 3 short, interesting facts (max 15 words each).
- "genus_members": A list of 3 other animals that belong to the same Genus (just names).

The animal is: %s

IMPORTANT: Return ONLY the JSON. No markdown formatting (like ` + "```json" + `), no intro text.`

func BuildPrompt(label string) string {
	return fmt.Sprintf(promptTemplate, label)
}
