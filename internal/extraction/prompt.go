package extraction

import (
	"fmt"
	"unicode/utf8"
)

const systemPrompt = `You extract software release information from release-notes pages.

Respond with a single JSON object and nothing else. Use exactly these keys:
{
  "currentVersion": string or null,  // the newest stable version of the named product on the page
  "releaseDate": "YYYY-MM-DD" or null,  // release date of currentVersion
  "versions": [
    {
      "version": string,
      "releaseDate": "YYYY-MM-DD" or null,
      "notes": [string],  // short bullet points describing the changes
      "type": "major" | "minor" | "patch",
      "buildNumber": string or null
    }
  ],
  "confidence": integer 0-100,  // how certain you are that currentVersion belongs to the named product
  "productNameFound": boolean  // whether the product name appears on the page
}

Rules:
- List versions newest first and only for the named product, never for other products on the same page.
- Copy version strings exactly as written on the page.
- If the page does not mention the product, set productNameFound to false, currentVersion to null and confidence to 0.
- Never invent versions or dates that are not on the page.`

// buildUserPrompt frames the page text for productName, keeping at most
// maxChars runes of content.
func buildUserPrompt(productName, content string, maxChars int) string {
	content, truncated := truncateRunes(content, maxChars)
	note := ""
	if truncated {
		note = "\n(The page was truncated.)"
	}
	return fmt.Sprintf("Product name: %s\n\nRelease notes page content:\n<content>\n%s\n</content>%s",
		productName, content, note)
}

func truncateRunes(s string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}
	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i], true
		}
		count++
	}
	return s, false
}
